package messages

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrame(t *testing.T) {
	buf := &bytes.Buffer{}
	first, err := EncodeRequest(JoinGame{GameID: "G1", PlayerName: "Alice"})
	require.NoError(t, err)
	second, err := EncodeRequest(Ping{})
	require.NoError(t, err)

	require.NoError(t, WriteFrame(buf, first))
	require.NoError(t, WriteFrame(buf, second))

	got, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestReadFrameTruncatedBody(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, []byte(`{"type":"ping"}`)))

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err := ReadFrame(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestReadFrameOversized(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)
	_, err := ReadFrame(bytes.NewReader(header[:]))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	in := []byte(`{"type":"joined","payload":{"game":{"id":"G1"}}}`)
	compressed, err := Compress(in)
	require.NoError(t, err)

	out, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Decompress([]byte("definitely not zstd"))
	assert.Error(t, err)
}
