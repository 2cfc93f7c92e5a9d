package hyperion

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hyperion-go/hyperion/internal/dispatch"
	"github.com/hyperion-go/hyperion/internal/logging"
	"github.com/hyperion-go/hyperion/internal/session"
	"github.com/hyperion-go/hyperion/internal/state"
	"github.com/hyperion-go/hyperion/internal/wire"
)

// Client is one connection to a Hyperion instance. It is safe for
// concurrent use: every exported method may be called from multiple
// goroutines, matching the "single logical event loop, many callers"
// model described by the session package.
type Client struct {
	opts       *Options
	instanceID uuid.UUID
	logger     *slog.Logger

	session *session.Session
	cache   *state.Cache
}

// New constructs a Client for opts. It does not connect; call Connect or
// ConnectRaw.
func New(opts *Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache := state.New()
	cfg := session.Config{
		Host:                opts.Host,
		Port:                opts.Port,
		Token:               opts.Token,
		TargetInstance:      opts.TargetInstance,
		ConnectTimeout:      opts.Timeout,
		Timeout:             opts.Timeout,
		RequestTokenTimeout: opts.RequestTokenTimeout,
		RetryDelay:          opts.ConnectionRetryDelay,
	}

	id := uuid.New()
	clientLogger := logging.ClientLogger(logger, fmt.Sprintf("%s:%d-%d", opts.Host, opts.Port, opts.TargetInstance)).With("client_uuid", id.String())

	sess := session.New(cfg, cache, clientLogger)

	c := &Client{
		opts:       opts,
		instanceID: id,
		logger:     clientLogger,
		session:    sess,
		cache:      cache,
	}

	for command, cb := range opts.Callbacks {
		sess.Dispatcher().SetCallback(command, dispatch.Callback(cb))
	}
	if opts.DefaultCallback != nil {
		sess.Dispatcher().SetDefaultCallback(dispatch.Callback(opts.DefaultCallback))
	}

	return c
}

// Connect runs the full connect -> authorize -> select-instance ->
// load-state -> steady sequence. It returns false if any step fails, in
// which case the client has already returned to Disconnected.
func (c *Client) Connect() bool { return c.session.Connect() }

// ConnectRaw opens the transport only, skipping authenticate/select/load.
func (c *Client) ConnectRaw() bool { return c.session.ConnectRaw() }

// Disconnect tears the session down in an orderly fashion. Idempotent.
func (c *Client) Disconnect() bool { return c.session.Disconnect() }

// InitDone is closed once the first connect attempt has completed,
// satisfying the thread-adapter's wait_for_client_init barrier.
func (c *Client) InitDone() <-chan struct{} { return c.session.InitDone() }

// ClientID is the "<host>:<port>-<target_instance>" identifier used for
// logging and disambiguation.
func (c *Client) ClientID() string {
	return fmt.Sprintf("%s:%d-%d", c.opts.Host, c.opts.Port, c.TargetInstance())
}

// InstanceUUID is the per-Client correlation id used in log output,
// distinct from the Hyperion server instance number.
func (c *Client) InstanceUUID() uuid.UUID { return c.instanceID }

// TargetInstance returns the instance the session intends to be joined
// to, which survives disconnects.
func (c *Client) TargetInstance() int { return c.session.TargetInstance() }

// Status returns the current connection status.
func (c *Client) Status() state.Status { return c.session.Status() }

// IsOn reports whether every named component is enabled. An empty list
// means [ALL].
func (c *Client) IsOn(components ...string) bool { return c.cache.IsOn(components) }

// VisiblePriority returns the first priority entry whose Visible flag is
// true, or false if none is.
func (c *Client) VisiblePriority() (state.Priority, bool) { return c.cache.VisiblePriority() }

// Priorities returns a stable copy of the full priorities list.
func (c *Client) Priorities() []state.Priority { return c.cache.Priorities() }

// PrioritiesAutoselect reports the last-known autoselect flag.
func (c *Client) PrioritiesAutoselect() bool { return c.cache.PrioritiesAutoselect() }

// Instances returns the running instance records.
func (c *Client) Instances() []state.Instance { return c.cache.Instances() }

// AllInstances returns every known instance record, running or not.
func (c *Client) AllInstances() []state.Instance { return c.cache.AllInstances() }

// Components returns a stable copy of the component map.
func (c *Client) Components() map[string]bool { return c.cache.Components() }

// Effects returns a stable copy of the effects list.
func (c *Client) Effects() []state.Effect { return c.cache.Effects() }

// Leds returns a stable copy of the LED layout.
func (c *Client) Leds() []state.Led { return c.cache.Leds() }

// VideoMode returns the last-known video mode.
func (c *Client) VideoMode() string { return c.cache.VideoMode() }

// ImageToLedMappingType returns the last-known mapping type.
func (c *Client) ImageToLedMappingType() string { return c.cache.ImageToLedMappingType() }

// Sessions returns a stable copy of the discovery session list.
func (c *Client) Sessions() []state.Session { return c.cache.Sessions() }

// CachedAdjustment returns a stable copy of the tracked adjustment fields
// last reported by the server (distinct from SetAdjustment, which pushes a
// new adjustment to the server).
func (c *Client) CachedAdjustment() map[string]json.RawMessage { return c.cache.Adjustment() }

// sendRequest writes msg without waiting for a reply, assigning an
// auto-tan if none was set. Returns false on transport failure.
func (c *Client) sendRequest(msg *wire.Message) bool {
	return c.session.SendRequest(msg)
}

// awaitRequest writes msg and waits up to timeout for a reply whose
// command matches expectedCommand. If tan is given, it is used as the
// request's tan instead of an auto-generated one; AwaitRequest then
// returns tan.ErrTanNotAvailable if that tan is already reserved.
// Otherwise returns the matched reply, or nil on timeout/transport
// failure/termination.
func (c *Client) awaitRequest(msg *wire.Message, expectedCommand string, timeout time.Duration, tan ...int) (*wire.Message, error) {
	if len(tan) > 0 {
		msg.Tan = tan[0]
	}
	return c.session.AwaitRequest(msg, expectedCommand, time.Now().Add(timeout))
}

func (c *Client) defaultTimeout() time.Duration { return c.opts.Timeout }
