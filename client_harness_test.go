package hyperion

import (
	"bufio"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer/fakeConn mirror internal/session's test harness, kept separate
// since this package cannot import internal/session's unexported helpers.
type fakeServer struct {
	t    *testing.T
	ln   net.Listener
	host string
	port int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &fakeServer{t: t, ln: ln, host: "127.0.0.1", port: port}
}

func (f *fakeServer) accept() *fakeConn {
	f.t.Helper()
	conn, err := f.ln.Accept()
	require.NoError(f.t, err)
	return &fakeConn{t: f.t, conn: conn, reader: bufio.NewReader(conn)}
}

type fakeConn struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func (c *fakeConn) close() { c.conn.Close() }

func (c *fakeConn) expectRequest(wantCommand string) map[string]any {
	c.t.Helper()
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)

	var got map[string]any
	require.NoError(c.t, json.Unmarshal([]byte(line), &got))
	require.Equal(c.t, wantCommand, got["command"])
	return got
}

func (c *fakeConn) reply(command string, tanVal float64, success bool, info any) {
	c.t.Helper()
	out := map[string]any{"command": command, "tan": tanVal, "success": success}
	if info != nil {
		out["info"] = info
	}
	encoded, err := json.Marshal(out)
	require.NoError(c.t, err)
	_, err = c.conn.Write(append(encoded, '\n'))
	require.NoError(c.t, err)
}

func minimalServerInfo() map[string]any {
	return map[string]any{
		"components":            []any{map[string]any{"name": "ALL", "enabled": true}},
		"adjustment":            []any{map[string]any{}},
		"effects":               []any{},
		"leds":                  []any{},
		"priorities":            []any{},
		"priorities_autoselect": true,
		"videomode":             "2D",
		"imageToLedMappingType": "entire_area",
		"sessions":              []any{},
		"instance":              []any{map[string]any{"instance": 0, "running": true, "friendlyName": "First Instance"}},
	}
}

// newTestClient builds a Client targeting srv with short timeouts, and
// registers a cleanup that disconnects it.
func newTestClient(t *testing.T, srv *fakeServer, opts ...Option) *Client {
	t.Helper()
	allOpts := append([]Option{
		WithTimeout(2 * time.Second),
		WithConnectionRetryDelay(50 * time.Millisecond),
	}, opts...)
	c := New(NewOptions(srv.host, append([]Option{WithPort(srv.port)}, allOpts...)...))
	t.Cleanup(func() { c.Disconnect() })
	return c
}
