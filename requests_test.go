package hyperion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperion-go/hyperion/internal/tan"
	"github.com/hyperion-go/hyperion/internal/wire"
)

func connectSteady(t *testing.T, srv *fakeServer, c *Client) *fakeConn {
	t.Helper()
	done := make(chan bool, 1)
	go func() { done <- c.Connect() }()

	conn := srv.accept()
	req := conn.expectRequest("serverinfo")
	conn.reply("serverinfo", req["tan"].(float64), true, minimalServerInfo())
	require.True(t, <-done)
	return conn
}

func TestColorAwaitsMatchingReply(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv, WithOrigin("unit-test"))
	conn := connectSteady(t, srv, c)

	type reply struct {
		msg *wire.Message
		err error
	}
	resultCh := make(chan reply, 1)
	go func() {
		msg, err := c.Color(1, [3]int{255, 0, 0}, "")
		resultCh <- reply{msg: msg, err: err}
	}()

	req := conn.expectRequest("color")
	require.Equal(t, float64(1), req["priority"])
	require.Equal(t, "unit-test", req["origin"])
	colorArr, ok := req["color"].([]any)
	require.True(t, ok)
	require.Equal(t, []any{float64(255), float64(0), float64(0)}, colorArr)

	conn.reply("color", req["tan"].(float64), true, nil)

	result := <-resultCh
	require.NoError(t, result.err)
	require.NotNil(t, result.msg)
	require.True(t, *result.msg.Success)
}

func TestClearHasNoOriginField(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	require.True(t, c.SendClear(5))
	req := conn.expectRequest("clear")
	require.Equal(t, float64(5), req["priority"])
	_, hasOrigin := req["origin"]
	require.False(t, hasOrigin)
}

func TestSetComponentShape(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	require.True(t, c.SendSetComponent("SMOOTHING", false))
	req := conn.expectRequest("componentstate")
	cs, ok := req["componentstate"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "SMOOTHING", cs["component"])
	require.Equal(t, false, cs["state"])
}

func TestRequestTokenGeneratesIDWhenOmitted(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	require.True(t, c.SendRequestToken(RequestTokenRequest{Comment: "my app"}))
	req := conn.expectRequest("authorize")
	require.Equal(t, "requestToken", req["subcommand"])
	id, _ := req["id"].(string)
	require.Len(t, id, 5)
	require.Equal(t, "my app", req["comment"])
	_, hasAccept := req["accept"]
	require.False(t, hasAccept)
}

func TestRequestTokenAbortSetsAcceptFalse(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	require.True(t, c.SendRequestTokenAbort(RequestTokenRequest{ID: "abcde"}))
	req := conn.expectRequest("authorize")
	require.Equal(t, "abcde", req["id"])
	require.Equal(t, false, req["accept"])
}

func TestVideoModeUsesCapitalMField(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	require.True(t, c.SendVideoMode("3DSBS"))
	req := conn.expectRequest("videomode")
	require.Equal(t, "3DSBS", req["videoMode"])
}

func TestClearAwaitsCallerSuppliedTan(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	resultCh := make(chan *wire.Message, 1)
	go func() {
		msg, err := c.Clear(5, 42)
		require.NoError(t, err)
		resultCh <- msg
	}()

	req := conn.expectRequest("clear")
	require.Equal(t, float64(42), req["tan"])
	conn.reply("clear", req["tan"].(float64), true, nil)

	result := <-resultCh
	require.NotNil(t, result)
	require.Equal(t, 42, result.Tan)
}

func TestClearWithDuplicateTanReturnsTanNotAvailable(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, err := c.Clear(7, 7)
		require.NoError(t, err)
	}()

	req := conn.expectRequest("clear")
	require.Equal(t, float64(7), req["tan"])

	_, err := c.Clear(9, 7)
	require.ErrorIs(t, err, tan.ErrTanNotAvailable)

	conn.reply("clear", req["tan"].(float64), true, nil)
	<-firstDone
}

func TestInstanceSwitchToShape(t *testing.T) {
	srv := newFakeServer(t)
	c := newTestClient(t, srv)
	conn := connectSteady(t, srv, c)

	require.True(t, c.SendSwitchInstance(2))
	req := conn.expectRequest("instance")
	require.Equal(t, "switchTo", req["subcommand"])
	require.Equal(t, float64(2), req["instance"])
}
