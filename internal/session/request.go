package session

import (
	"time"

	"github.com/hyperion-go/hyperion/internal/wire"
)

// NextTan allocates the next auto-tan in this session's sequence, for
// callers that need one before building a request.
func (s *Session) NextTan() int { return s.tans.NextAuto() }

// SendRequest writes msg without waiting for a reply, assigning an
// auto-tan if msg.Tan is zero. Returns false on transport failure.
func (s *Session) SendRequest(msg *wire.Message) bool {
	if msg.Tan == 0 {
		msg.Tan = s.tans.NextAuto()
	}
	return s.writeMessage(msg)
}

// AwaitRequest writes msg (assigning an auto-tan if msg.Tan is zero,
// reserving a caller-supplied one otherwise) and parks for a reply whose
// command equals expectedCommand, up to deadline. Returns
// tan.ErrTanNotAvailable if a caller-supplied tan collides with one
// already in flight; otherwise returns the matched reply, or nil on
// timeout, transport failure, or session termination.
func (s *Session) AwaitRequest(msg *wire.Message, expectedCommand string, deadline time.Time) (*wire.Message, error) {
	if msg.Tan == 0 {
		msg.Tan = s.tans.NextAuto()
	}
	if err := s.tans.Reserve(msg.Tan, expectedCommand); err != nil {
		return nil, err
	}

	if !s.writeMessage(msg) {
		s.tans.Park(msg.Tan, time.Now()) // release the reservation immediately
		return nil, nil
	}

	return s.tans.Park(msg.Tan, deadline), nil
}
