package hyperion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientConnectPopulatesCache(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)

	done := make(chan bool, 1)
	go func() { done <- c.Connect() }()

	conn := srv.accept()
	req := conn.expectRequest("serverinfo")
	conn.reply("serverinfo", req["tan"].(float64), true, minimalServerInfo())

	require.True(t, <-done)
	require.True(t, c.Status().Connected)
	require.True(t, c.IsOn())
	require.True(t, c.PrioritiesAutoselect())
	require.Equal(t, "2D", c.VideoMode())
	require.Equal(t, "entire_area", c.ImageToLedMappingType())
	require.Len(t, c.Instances(), 1)
	require.Equal(t, 0, c.Instances()[0].Instance)
}

func TestClientIDAndInstanceUUID(t *testing.T) {
	c := New(NewOptions("10.0.0.5", WithPort(1234), WithTargetInstance(3)))
	require.Equal(t, "10.0.0.5:1234-3", c.ClientID())
	require.NotEqual(t, c.InstanceUUID().String(), "")
}

func TestClientDisconnectBeforeConnectIsIdempotent(t *testing.T) {
	c := New(NewOptions("127.0.0.1", WithPort(1)))
	require.True(t, c.Disconnect())
}
