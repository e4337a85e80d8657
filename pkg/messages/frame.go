package messages

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	// MaxFrameSize bounds a single compressed frame on the wire.
	MaxFrameSize = 1 << 20
)

// Compress compresses envelope bytes for the wire.
func Compress(b []byte) ([]byte, error) {
	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress message: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}
	return compressed.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(b []byte) ([]byte, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	out, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed message: %v", err)
	}
	return out, nil
}

// WriteFrame writes one compressed envelope to a byte stream as a big-endian
// uint32 length prefix followed by the compressed bytes.
func WriteFrame(w io.Writer, envelope []byte) error {
	compressed, err := Compress(envelope)
	if err != nil {
		return err
	}
	if len(compressed) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds maximum of %d", len(compressed), MaxFrameSize)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(compressed)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %v", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("failed to write frame body: %v", err)
	}
	return nil
}

// ReadFrame reads one frame written by WriteFrame and returns the envelope
// bytes.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds maximum of %d", size, MaxFrameSize)
	}
	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("failed to read frame body: %v", err)
	}
	return Decompress(compressed)
}
