package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeTransports(t *testing.T) (*Transport, *Transport) {
	t.Helper()
	a, b := net.Pipe()
	return newTransport(a), newTransport(b)
}

func TestConnectRefused(t *testing.T) {
	_, err := Connect("127.0.0.1", 1, 200*time.Millisecond)
	require.Error(t, err)
	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, ErrConnect, tErr.Kind)
}

func TestWriteLineThenReadLine(t *testing.T) {
	client, server := pipeTransports(t)
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- client.WriteLine([]byte(`{"command":"serverinfo","tan":1}`))
	}()

	line, err := server.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, `{"command":"serverinfo","tan":1}`, string(line))
	require.NoError(t, <-done)
}

func TestReadLineOnClosedConnection(t *testing.T) {
	client, server := pipeTransports(t)
	defer client.Close()

	server.Close()
	_, err := client.ReadLine()
	require.Error(t, err)
	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, ErrRead, tErr.Kind)
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	client, server := pipeTransports(t)
	defer client.Close()
	defer server.Close()

	const writers = 8
	done := make(chan struct{})
	for i := 0; i < writers; i++ {
		go func(n int) {
			_ = client.WriteLine([]byte(`{"command":"clear"}`))
			done <- struct{}{}
		}(i)
	}

	for i := 0; i < writers; i++ {
		line, err := server.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, `{"command":"clear"}`, string(line))
		<-done
	}
}
