package session

import (
	"time"

	"github.com/hyperion-go/hyperion/internal/transport"
	"github.com/hyperion-go/hyperion/internal/wire"
)

// subscriptionList is sent with every serverinfo request so the connection
// is subscribed to every push-update family the cache mirrors.
var subscriptionList = []string{
	"adjustment-update",
	"components-update",
	"effects-update",
	"leds-update",
	"imageToLedMapping-update",
	"instance-update",
	"priorities-update",
	"sessions-update",
	"videomode-update",
}

// Connect runs the full connect -> authorize -> select-instance ->
// load-state -> steady sequence. It returns false if any step fails, in
// which case the FSM has already returned to Disconnected.
func (s *Session) Connect() bool {
	return s.connect(false)
}

// ConnectRaw opens the transport only; logged_in and loaded_state remain
// false and instance stays at its default. The receive loop still starts.
func (s *Session) ConnectRaw() bool {
	return s.connect(true)
}

func (s *Session) connect(raw bool) bool {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return false
	}
	if err := s.setState(Connecting); err != nil {
		s.mu.Unlock()
		return false
	}
	s.raw = raw
	s.shuttingDown = false
	s.mu.Unlock()
	defer s.markInitDone()

	s.armStopChannel()
	s.cache.Reset()
	s.tans.ResetSequence()

	tp, err := transport.Connect(s.cfg.Host, s.cfg.Port, s.cfg.ConnectTimeout)
	if err != nil {
		s.logger.Warn("connect failed", "client", s.clientID(), "err", err)
		s.abortSetup()
		return false
	}

	s.mu.Lock()
	s.transport = tp
	s.mu.Unlock()

	if raw {
		s.startReceiveLoop()
		s.mu.Lock()
		if err := s.setState(LoadingState); err != nil {
			s.mu.Unlock()
			s.abortSetup()
			return false
		}
		if err := s.setState(Steady); err != nil {
			s.mu.Unlock()
			s.abortSetup()
			return false
		}
		s.mu.Unlock()
		s.publishStatus()
		return true
	}

	s.startReceiveLoop()

	if s.cfg.Token != "" {
		s.mu.Lock()
		if err := s.setState(Authenticating); err != nil {
			s.mu.Unlock()
			s.abortSetup()
			return false
		}
		s.mu.Unlock()

		reply := s.bootstrapRequest("authorize", "login", map[string]any{"token": s.cfg.Token})
		if !replySucceeded(reply) {
			s.logger.Warn("authorize/login failed", "client", s.clientID())
			s.abortSetup()
			return false
		}
		s.mu.Lock()
		s.loggedIn = true
		s.mu.Unlock()
	}

	s.mu.Lock()
	target := s.targetInstance
	if err := s.setState(SelectingInstance); err != nil {
		s.mu.Unlock()
		s.abortSetup()
		return false
	}
	s.mu.Unlock()

	if target != 0 {
		reply := s.bootstrapRequest("instance", "switchTo", map[string]any{"instance": target})
		if !replySucceeded(reply) {
			s.logger.Warn("instance/switchTo failed", "client", s.clientID(), "instance", target)
			s.abortSetup()
			return false
		}
	}

	s.mu.Lock()
	if err := s.setState(LoadingState); err != nil {
		s.mu.Unlock()
		s.abortSetup()
		return false
	}
	s.mu.Unlock()

	reply := s.bootstrapRequest("serverinfo", "", map[string]any{"subscribe": subscriptionList})
	if !replySucceeded(reply) {
		s.logger.Warn("serverinfo failed", "client", s.clientID())
		s.abortSetup()
		return false
	}

	s.mu.Lock()
	inst := target
	s.instance = &inst
	s.loadedState = true
	s.setState(Steady)
	s.mu.Unlock()

	s.publishStatus()
	return true
}

// bootstrapRequest sends one handshake request and waits for its reply
// using the same reserve/send/park path the public Client API uses.
// It returns nil on write failure, timeout, or a session-fatal read error.
func (s *Session) bootstrapRequest(command, subcommand string, fields map[string]any) *wire.Message {
	expected := command
	if subcommand != "" {
		expected = command + "-" + subcommand
	}

	tanVal := s.tans.NextAuto()
	if err := s.tans.Reserve(tanVal, expected); err != nil {
		return nil
	}

	msg := wire.New(command)
	msg.Subcommand = subcommand
	msg.Tan = tanVal
	for k, v := range fields {
		_ = msg.Set(k, v)
	}

	if !s.writeMessage(msg) {
		return nil
	}
	return s.tans.Park(tanVal, time.Now().Add(s.cfg.Timeout))
}

func replySucceeded(msg *wire.Message) bool {
	return msg != nil && msg.Success != nil && *msg.Success
}

// abortSetup tears down a failed connect attempt and returns the FSM to
// Disconnected, per "if any step of the initial sequence fails, the FSM
// terminates the session and transitions to Disconnected."
func (s *Session) abortSetup() {
	s.mu.Lock()
	tp := s.transport
	s.transport = nil
	cur := s.state
	s.mu.Unlock()

	if tp != nil {
		tp.Close()
	}
	s.recvWG.Wait()
	s.tans.DrainAll()

	s.mu.Lock()
	if cur != Disconnected {
		if err := s.setState(Disconnected); err != nil {
			s.logger.Warn("abortSetup: unexpected state", "err", err)
			s.state = Disconnected
		}
	}
	s.instance = nil
	s.loggedIn = false
	s.loadedState = false
	s.mu.Unlock()

	s.publishStatus()
}
