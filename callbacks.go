package hyperion

import "github.com/hyperion-go/hyperion/internal/dispatch"

// ClientUpdateKey is the synthetic callback key for connection-status
// changes (connected, logged_in, instance, loaded_state); it never
// arrives over the wire.
const ClientUpdateKey = "client-update"

// SetCallback registers (or replaces) the callback invoked for command.
// Pass ClientUpdateKey to observe session status changes.
func (c *Client) SetCallback(command string, cb Callback) {
	c.session.Dispatcher().SetCallback(command, dispatch.Callback(cb))
}

// SetDefaultCallback registers the callback invoked for any inbound
// message with no command-specific callback registered.
func (c *Client) SetDefaultCallback(cb Callback) {
	c.session.Dispatcher().SetDefaultCallback(dispatch.Callback(cb))
}
