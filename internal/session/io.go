package session

import (
	"errors"
	"time"

	"github.com/hyperion-go/hyperion/internal/wire"
)

// errReloadFailed marks a serverinfo reload (triggered by an instance
// switch or fallback) that never got a successful reply — session-fatal
// per the protocol, since the cache is left stale for the new instance.
var errReloadFailed = errors.New("session: instance reload failed")

// writeMessage encodes and writes msg. It never returns a typed error to
// callers above the Session — write failures are swallowed into a boolean
// return and observed later via the session status, per the transport
// contract.
func (s *Session) writeMessage(msg *wire.Message) bool {
	s.mu.Lock()
	tp := s.transport
	s.mu.Unlock()
	if tp == nil {
		return false
	}

	encoded, err := s.framer.Encode(msg)
	if err != nil {
		s.logger.Warn("encode outbound message", "command", msg.Command, "err", err)
		return false
	}
	if err := tp.WriteLine(encoded); err != nil {
		s.onSessionFatal(err)
		return false
	}
	return true
}

// startReceiveLoop spawns the sole reader of the inbound stream. It is the
// sole owner of the inbound loop and is cancellable only by closing the
// Transport (from Disconnect or abortSetup).
func (s *Session) startReceiveLoop() {
	s.mu.Lock()
	tp := s.transport
	s.mu.Unlock()

	s.recvWG.Add(1)
	go func() {
		defer s.recvWG.Done()
		for {
			line, err := tp.ReadLine()
			if err != nil {
				s.onSessionFatal(err)
				return
			}
			msg, err := s.framer.Decode(line)
			if err != nil {
				s.onSessionFatal(err)
				return
			}
			s.disp.Dispatch(msg)
		}
	}()
}

// onSessionFatal handles a transport or parse failure observed by the
// receive loop (or a write). A deliberate Disconnect() close is not treated
// as fatal — shuttingDown is already set by then. The close made by
// abortSetup() does arrive here; the state is not Steady at that point, so
// no reconnect is scheduled.
func (s *Session) onSessionFatal(err error) {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return
	}
	wasSteady := s.state == Steady
	s.mu.Unlock()

	s.logger.Warn("session-fatal error", "client", s.clientID(), "err", err)

	s.mu.Lock()
	tp := s.transport
	s.transport = nil
	s.state = Disconnected
	s.instance = nil
	s.loggedIn = false
	s.loadedState = false
	s.mu.Unlock()

	if tp != nil {
		tp.Close()
	}
	s.tans.DrainAll()
	s.publishStatus()

	// Reconnection only follows a failure that occurred in Steady state —
	// a failure during the initial handshake is handled by abortSetup and
	// does not retry on its own.
	if wasSteady {
		go s.reconnectLoop()
	}
}

// reconnectLoop retries the full connect sequence after a fixed delay,
// unbounded until Disconnect is called.
func (s *Session) reconnectLoop() {
	for {
		s.mu.Lock()
		stopCh := s.stopReconnect
		s.mu.Unlock()

		select {
		case <-stopCh:
			return
		case <-time.After(s.cfg.RetryDelay):
		}

		s.mu.Lock()
		done := s.shuttingDown
		s.mu.Unlock()
		if done {
			return
		}

		if s.connect(false) {
			return
		}
	}
}

// Disconnect transitions to ShuttingDown, stops the receive loop, closes
// the transport, drains the tan registry, and emits a terminal
// client-update. It is idempotent: calling it while already Disconnected
// is a no-op that returns true without I/O.
func (s *Session) Disconnect() bool {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return true
	}
	s.shuttingDown = true
	s.state = ShuttingDown
	tp := s.transport
	s.mu.Unlock()

	select {
	case <-s.stopReconnect:
	default:
		close(s.stopReconnect)
	}

	if tp != nil {
		tp.Close()
	}
	s.recvWG.Wait()
	s.tans.DrainAll()

	s.mu.Lock()
	s.state = Disconnected
	s.instance = nil
	s.loggedIn = false
	s.loadedState = false
	s.transport = nil
	s.mu.Unlock()

	s.publishStatus()
	return true
}

// armStopChannel re-creates the reconnect-cancellation channel if a prior
// Disconnect consumed it, so the session can be connected again.
func (s *Session) armStopChannel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stopReconnect:
		s.stopReconnect = make(chan struct{})
	default:
	}
}

// --- dispatch.SessionHooks ---

// TriggerInstanceFallback reloads on instance 0 and resets target_instance
// to 0 when the live instance fell out of the running set reported by an
// instance-update.
func (s *Session) TriggerInstanceFallback(running []int) {
	s.mu.Lock()
	cur := s.instance
	st := s.state
	s.mu.Unlock()
	if cur == nil || st != Steady {
		return
	}
	for _, r := range running {
		if r == *cur {
			return
		}
	}
	s.logger.Warn("instance fallback", "client", s.clientID(), "instance", *cur)
	go s.reloadOnInstance(0, true)
}

// TriggerReload requests a fresh serverinfo snapshot when an
// instance-switchTo push reports a change of live instance. A reply that
// reports the same instance the session already occupies triggers no
// reload — the safer of the two semantics the protocol's source leaves
// ambiguous. Outside Steady (e.g. the switchTo reply of the connect
// sequence itself) it does nothing.
func (s *Session) TriggerReload(instance int) {
	s.mu.Lock()
	cur := s.instance
	st := s.state
	s.mu.Unlock()
	if st != Steady {
		return
	}
	if cur != nil && *cur == instance {
		return
	}
	go s.reloadOnInstance(instance, false)
}

// ScheduleDisconnect winds the session down without attempting to
// reconnect, following a successful authorize-logout. Run in its own
// goroutine since it is invoked from the receive loop itself, which
// Disconnect must be able to wait for.
func (s *Session) ScheduleDisconnect() {
	go s.Disconnect()
}

func (s *Session) reloadOnInstance(newInstance int, isFallback bool) {
	reply := s.bootstrapRequest("serverinfo", "", map[string]any{"subscribe": subscriptionList})
	if !replySucceeded(reply) {
		s.logger.Warn("reload serverinfo failed", "client", s.clientID(), "instance", newInstance)
		s.onSessionFatal(errReloadFailed)
		return
	}

	s.mu.Lock()
	inst := newInstance
	s.instance = &inst
	if isFallback {
		s.targetInstance = 0
	} else {
		s.targetInstance = newInstance
	}
	s.mu.Unlock()

	s.publishStatus()
}
