package hyperion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperion-go/hyperion/internal/wire"
)

func TestNewOptionsDefaults(t *testing.T) {
	o := NewOptions("192.168.1.50")
	require.Equal(t, "192.168.1.50", o.Host)
	require.Equal(t, DefaultPort, o.Port)
	require.Equal(t, DefaultOrigin, o.Origin)
	require.Equal(t, DefaultConnectionRetryDelaySecs*time.Second, o.ConnectionRetryDelay)
	require.Equal(t, DefaultTimeoutSecs*time.Second, o.Timeout)
	require.Equal(t, DefaultRequestTokenTimeoutSecs*time.Second, o.RequestTokenTimeout)
	require.Empty(t, o.Token)
	require.Equal(t, 0, o.TargetInstance)
	require.NotNil(t, o.Callbacks)
	require.Empty(t, o.Callbacks)
}

func TestOptionsOverrides(t *testing.T) {
	var namedCalled bool

	o := NewOptions("hyperion.local",
		WithPort(19445),
		WithToken("tok-123"),
		WithTargetInstance(2),
		WithOrigin("my-app"),
		WithConnectionRetryDelay(5*time.Second),
		WithTimeout(1*time.Second),
		WithRequestTokenTimeout(30*time.Second),
		WithDefaultCallback(func(m *wire.Message) {}),
		WithCallback("color", func(m *wire.Message) { namedCalled = true }),
	)

	require.Equal(t, 19445, o.Port)
	require.Equal(t, "tok-123", o.Token)
	require.Equal(t, 2, o.TargetInstance)
	require.Equal(t, "my-app", o.Origin)
	require.Equal(t, 5*time.Second, o.ConnectionRetryDelay)
	require.Equal(t, 1*time.Second, o.Timeout)
	require.Equal(t, 30*time.Second, o.RequestTokenTimeout)
	require.NotNil(t, o.DefaultCallback)
	require.Contains(t, o.Callbacks, "color")

	o.DefaultCallback(nil)
	o.Callbacks["color"](nil)
	require.True(t, namedCalled)
}

func TestWithCallbackInitializesNilMap(t *testing.T) {
	o := &Options{}
	WithCallback("color", func(m *wire.Message) {})(o)
	require.Contains(t, o.Callbacks, "color")
}
