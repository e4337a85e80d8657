package queue

// Queue represents a basic bounded queue.
type Queue interface {
	Enqueue(item interface{})
	Dequeue() (interface{}, bool)
	Size() int
	ReadAll() []interface{}
	Clear()
}
