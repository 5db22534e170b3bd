package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReadWrite(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	carrier := NewStream(local)

	go remote.Write([]byte("ping"))
	buf := make([]byte, 16)
	n, err := carrier.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	got := make(chan []byte, 1)
	go func() {
		b := make([]byte, 16)
		n, _ := remote.Read(b)
		got <- b[:n]
	}()
	require.NoError(t, carrier.Write([]byte("pong")))
	assert.Equal(t, []byte("pong"), <-got)
}

func TestStreamCloseUnblocksRead(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	carrier := NewStream(local)

	result := make(chan error, 1)
	go func() {
		_, err := carrier.Read(make([]byte, 16))
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, carrier.Close())

	select {
	case err := <-result:
		assert.Equal(t, io.EOF, err)
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Close")
	}

	assert.Equal(t, ErrClosed, carrier.Write([]byte("late")))
}

func TestStreamBrokenConnectionReadsEOF(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()

	carrier := NewStream(local)
	remote.Close()

	_, err := carrier.Read(make([]byte, 16))
	assert.Equal(t, io.EOF, err)
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	carrier := NewStream(local)
	require.NoError(t, carrier.Close())
	require.NoError(t, carrier.Close())

	// The underlying stream stays open: its owner can still close it.
	assert.NoError(t, local.Close())
}
