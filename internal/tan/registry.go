// Package tan implements the per-session transaction-number registry: it
// allocates tans, parks callers awaiting a matching reply, and wakes them
// on arrival, timeout, or session termination. It is the only point where
// a request goroutine and the receive loop meet.
package tan

import (
	"errors"
	"sync"
	"time"

	"github.com/hyperion-go/hyperion/internal/wire"
)

// ErrTanNotAvailable is raised when a caller-supplied tan is already
// registered. It is the only error the public Client API lets cross its
// boundary; every other failure collapses to a nil/false return.
var ErrTanNotAvailable = errors.New("tan: already in use")

type pendingEntry struct {
	expectedCommand string
	done            chan *wire.Message
}

// Registry tracks outstanding requests for one session. It is reset
// (ResetSequence) at the start of every connect attempt and drained
// (DrainAll) at the end of every session.
type Registry struct {
	mu       sync.Mutex
	nextAuto int
	pending  map[int]*pendingEntry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{pending: map[int]*pendingEntry{}}
}

// NextAuto returns the next auto-allocated tan: a per-session counter that
// increases by exactly one on every call, starting at 1 after
// ResetSequence. It does not itself reserve a parked slot — callers that
// intend to await a reply must also call Reserve with the same value.
func (r *Registry) NextAuto() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextAuto++
	return r.nextAuto
}

// ResetSequence restarts the auto-tan counter. Called once per connect.
func (r *Registry) ResetSequence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextAuto = 0
}

// Reserve registers tanVal as awaiting a reply whose command equals
// expectedCommand. It fails with ErrTanNotAvailable if tanVal is already
// registered — this is the only place that error can originate.
func (r *Registry) Reserve(tanVal int, expectedCommand string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pending[tanVal]; exists {
		return ErrTanNotAvailable
	}
	r.pending[tanVal] = &pendingEntry{
		expectedCommand: expectedCommand,
		done:            make(chan *wire.Message, 1),
	}
	return nil
}

// Park blocks until the matching reply arrives, deadline elapses, or the
// session terminates via DrainAll. Returns nil in the latter two cases.
func (r *Registry) Park(tanVal int, deadline time.Time) *wire.Message {
	r.mu.Lock()
	entry, ok := r.pending[tanVal]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	defer r.free(tanVal)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case msg := <-entry.done:
		return msg
	case <-timer.C:
		return nil
	}
}

func (r *Registry) free(tanVal int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, tanVal)
}

// Deliver hands msg to its parked caller if msg.Tan is registered and the
// reply's command matches what that caller is waiting for. Returns false
// when no pending request accepted it, so the dispatcher can try other
// sinks — the tan match must win whenever it happens, never both a tan
// sink and a command callback for the same message.
func (r *Registry) Deliver(msg *wire.Message) bool {
	if msg.Tan == 0 {
		return false
	}
	r.mu.Lock()
	entry, ok := r.pending[msg.Tan]
	if !ok || entry.expectedCommand != msg.Command {
		r.mu.Unlock()
		return false
	}
	delete(r.pending, msg.Tan)
	r.mu.Unlock()

	select {
	case entry.done <- msg:
	default:
	}
	return true
}

// DrainAll completes every parked caller with a nil message and clears the
// table. Invoked when the session transitions to ShuttingDown/Disconnected.
func (r *Registry) DrainAll() {
	r.mu.Lock()
	entries := r.pending
	r.pending = map[int]*pendingEntry{}
	r.mu.Unlock()

	for _, e := range entries {
		select {
		case e.done <- nil:
		default:
		}
	}
}
