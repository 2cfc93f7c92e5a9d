package hyperion

import (
	"log/slog"
	"time"

	"github.com/hyperion-go/hyperion/internal/wire"
)

// Default configuration values, mirroring the Hyperion protocol's own
// constant table (original_source/hyperion/const.py).
const (
	DefaultPort                     = 19444
	DefaultConnectionRetryDelaySecs = 30
	DefaultTimeoutSecs              = 5
	DefaultRequestTokenTimeoutSecs  = 180
	DefaultOrigin                   = "hyperion-go"
)

// Options configures a Client. Build one with NewOptions and functional
// Option values; do not construct it as a struct literal from outside the
// package since zero values for the timeouts are invalid.
type Options struct {
	Host  string
	Port  int
	Token string

	TargetInstance int
	Origin         string

	ConnectionRetryDelay time.Duration
	Timeout              time.Duration
	RequestTokenTimeout  time.Duration

	DefaultCallback Callback
	Callbacks       map[string]Callback

	Logger *slog.Logger
}

// Option mutates an Options value built by NewOptions.
type Option func(*Options)

// NewOptions builds Options for host with every default applied, then
// layers opts over it in order.
func NewOptions(host string, opts ...Option) *Options {
	o := &Options{
		Host:                 host,
		Port:                 DefaultPort,
		Origin:               DefaultOrigin,
		ConnectionRetryDelay: DefaultConnectionRetryDelaySecs * time.Second,
		Timeout:              DefaultTimeoutSecs * time.Second,
		RequestTokenTimeout:  DefaultRequestTokenTimeoutSecs * time.Second,
		Callbacks:            map[string]Callback{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPort overrides the default server port.
func WithPort(port int) Option {
	return func(o *Options) { o.Port = port }
}

// WithToken enables the authorize/login step of connect with the given
// token.
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token }
}

// WithTargetInstance sets the instance the session should select during
// connect and restore across reconnects.
func WithTargetInstance(instance int) Option {
	return func(o *Options) { o.TargetInstance = instance }
}

// WithOrigin overrides the default origin attached to color/effect/image
// commands that omit one.
func WithOrigin(origin string) Option {
	return func(o *Options) { o.Origin = origin }
}

// WithConnectionRetryDelay overrides the fixed reconnect backoff.
func WithConnectionRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.ConnectionRetryDelay = d }
}

// WithTimeout overrides the default await-response deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithRequestTokenTimeout overrides the authorize/requestToken deadline.
func WithRequestTokenTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTokenTimeout = d }
}

// WithDefaultCallback registers the callback invoked for any inbound
// message with no command-specific callback.
func WithDefaultCallback(cb Callback) Option {
	return func(o *Options) { o.DefaultCallback = cb }
}

// WithCallback registers a callback for one command (or the synthetic key
// "client-update").
func WithCallback(command string, cb Callback) Option {
	return func(o *Options) {
		if o.Callbacks == nil {
			o.Callbacks = map[string]Callback{}
		}
		o.Callbacks[command] = cb
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// Callback receives one inbound message (a real reply/push, or the
// synthetic client-update).
type Callback func(*wire.Message)
