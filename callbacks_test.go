package hyperion

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperion-go/hyperion/internal/wire"
)

func TestSetCallbackReceivesClientUpdate(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)

	var mu sync.Mutex
	var updates []*wire.Message
	c.SetCallback(ClientUpdateKey, func(m *wire.Message) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, m)
	})

	done := make(chan bool, 1)
	go func() { done <- c.Connect() }()

	conn := srv.accept()
	req := conn.expectRequest("serverinfo")
	conn.reply("serverinfo", req["tan"].(float64), true, minimalServerInfo())
	require.True(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, updates)
}

func TestSetDefaultCallbackReceivesUnregisteredPush(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)

	received := make(chan *wire.Message, 1)
	c.SetDefaultCallback(func(m *wire.Message) { received <- m })

	done := make(chan bool, 1)
	go func() { done <- c.Connect() }()

	conn := srv.accept()
	req := conn.expectRequest("serverinfo")
	conn.reply("serverinfo", req["tan"].(float64), true, minimalServerInfo())
	require.True(t, <-done)

	_, err := conn.conn.Write([]byte(`{"command":"videomode-update","data":{"videomode":"3DSBS"}}` + "\n"))
	require.NoError(t, err)

	msg := <-received
	require.Equal(t, "videomode-update", msg.Command)
}
