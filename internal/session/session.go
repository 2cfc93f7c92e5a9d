// Package session implements the connect -> authorize -> select-instance
// -> load-state -> steady sequence, the background receive loop, and
// reconnection with backoff. It is the sole owner of the Transport for
// its lifetime.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperion-go/hyperion/internal/dispatch"
	"github.com/hyperion-go/hyperion/internal/state"
	"github.com/hyperion-go/hyperion/internal/tan"
	"github.com/hyperion-go/hyperion/internal/transport"
	"github.com/hyperion-go/hyperion/internal/wire"
)

// Config carries everything the FSM needs to run the connect sequence and
// pick timeouts; it is a plain value, not persisted anywhere.
type Config struct {
	Host                string
	Port                int
	Token               string
	TargetInstance      int
	ConnectTimeout      time.Duration
	Timeout             time.Duration
	RequestTokenTimeout time.Duration
	RetryDelay          time.Duration
}

// Session drives the FSM for one client. It owns the Transport, the Tan
// Registry, and the Dispatcher; the State Cache is supplied by the caller
// so it outlives any one connection attempt only as long as the caller
// wants (Reset is called on every (re)connect).
type Session struct {
	cfg    Config
	cache  *state.Cache
	tans   *tan.Registry
	disp   *dispatch.Dispatcher
	framer wire.Framer
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	transport      *transport.Transport
	targetInstance int
	instance       *int
	loggedIn       bool
	loadedState    bool
	shuttingDown   bool
	raw            bool

	recvWG        sync.WaitGroup
	stopReconnect chan struct{}
	initOnce      sync.Once
	initDone      chan struct{}
}

// New constructs a Session bound to cache. logger must not be nil.
func New(cfg Config, cache *state.Cache, logger *slog.Logger) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = cfg.Timeout
	}
	s := &Session{
		cfg:            cfg,
		cache:          cache,
		tans:           tan.New(),
		framer:         wire.NewFramer(),
		logger:         logger,
		state:          Disconnected,
		targetInstance: cfg.TargetInstance,
		stopReconnect:  make(chan struct{}),
		initDone:       make(chan struct{}),
	}
	s.disp = dispatch.New(s.tans, cache, s, logger)
	return s
}

// Dispatcher exposes the wired dispatcher so the Client layer can register
// callbacks without the Session re-exporting every Dispatcher method.
func (s *Session) Dispatcher() *dispatch.Dispatcher { return s.disp }

// Tans exposes the tan registry for the Client API's send/await helpers.
func (s *Session) Tans() *tan.Registry { return s.tans }

// InitDone is closed once the first connect attempt (successful or not)
// has completed, satisfying the thread-adapter's wait_for_client_init
// barrier (see hyperion_sync.go).
func (s *Session) InitDone() <-chan struct{} { return s.initDone }

func (s *Session) markInitDone() {
	s.initOnce.Do(func() { close(s.initDone) })
}

// State returns the current FSM state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(to State) error {
	if !IsValidTransition(s.state, to) {
		return fmt.Errorf("session: invalid transition %s -> %s", s.state, to)
	}
	s.state = to
	return nil
}

// Status returns a Status value derived from the FSM's own bookkeeping
// (distinct from the cache's copy, which publishStatus keeps for
// client-update comparison).
func (s *Session) Status() state.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inst *int
	if s.instance != nil {
		v := *s.instance
		inst = &v
	}
	return state.Status{
		Connected:   s.state == Steady,
		LoggedIn:    s.loggedIn,
		Instance:    inst,
		LoadedState: s.loadedState,
	}
}

// TargetInstance returns the instance the session intends to be joined
// to, which survives disconnects.
func (s *Session) TargetInstance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetInstance
}

func (s *Session) publishStatus() {
	changed, status := s.cache.SetStatus(s.Status())
	if changed {
		s.disp.EmitClientUpdate(status)
	}
}

// clientID is the "<host>:<port>-<target_instance>" identifier used for
// logging and disambiguation.
func (s *Session) clientID() string {
	return fmt.Sprintf("%s:%d-%d", s.cfg.Host, s.cfg.Port, s.TargetInstance())
}
