package queue

import "sync"

const (
	// DefaultCapacity is the queue capacity when none is given.
	DefaultCapacity = 256
)

// InMemoryQueue implements a bounded in-memory queue. When full, the oldest
// item is dropped to make room for the newest.
type InMemoryQueue struct {
	lock     sync.Mutex
	items    []interface{}
	capacity int
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryQueue{
		capacity: capacity,
	}
}

// Enqueue adds an item to the end of the queue, dropping the oldest item if
// the queue is full.
func (q *InMemoryQueue) Enqueue(item interface{}) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, item)
}

// Dequeue removes and returns the item from the front of the queue.
func (q *InMemoryQueue) Dequeue() (interface{}, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// ReadAll removes and returns all pending items in order.
func (q *InMemoryQueue) ReadAll() []interface{} {
	q.lock.Lock()
	defer q.lock.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Clear drops all pending items.
func (q *InMemoryQueue) Clear() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.items = nil
}
