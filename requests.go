package hyperion

import (
	"crypto/rand"

	"github.com/hyperion-go/hyperion/internal/wire"
)

// requestAlnumAlphabet is the character set used to auto-generate a
// requestToken confirmation id when the caller omits one.
const requestAlnumAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomAlnumID(n int) string {
	out := make([]byte, n)
	buf := make([]byte, n)
	_, _ = rand.Read(buf) // crypto/rand.Read never fails on supported platforms
	for i, b := range buf {
		out[i] = requestAlnumAlphabet[int(b)%len(requestAlnumAlphabet)]
	}
	return string(out)
}

func expectedReply(command, subcommand string) string {
	if subcommand == "" {
		return command
	}
	return command + "-" + subcommand
}

func (c *Client) build(command, subcommand string, fields map[string]any) *wire.Message {
	msg := wire.New(command)
	msg.Subcommand = subcommand
	for k, v := range fields {
		_ = msg.Set(k, v)
	}
	return msg
}

// --- color / effect / image / clear (spec.md §4.7) ---

// SendColor sets the LED color for priority without waiting for a reply.
// origin defaults to the configured Options.Origin when empty.
func (c *Client) SendColor(priority int, color [3]int, origin string) bool {
	return c.sendRequest(c.colorMessage(priority, color, origin))
}

// Color is the await-response sibling of SendColor. tan, if given,
// pins the request to a caller-chosen tan instead of an auto-generated
// one (spec.md §4.7).
func (c *Client) Color(priority int, color [3]int, origin string, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.colorMessage(priority, color, origin), expectedReply("color", ""), c.defaultTimeout(), tan...)
}

func (c *Client) colorMessage(priority int, color [3]int, origin string) *wire.Message {
	if origin == "" {
		origin = c.opts.Origin
	}
	return c.build("color", "", map[string]any{
		"priority": priority,
		"color":    []int{color[0], color[1], color[2]},
		"origin":   origin,
	})
}

// SendEffect starts a named effect at priority without waiting for a reply.
func (c *Client) SendEffect(priority int, effectName string, origin string) bool {
	return c.sendRequest(c.effectMessage(priority, effectName, origin))
}

// Effect is the await-response sibling of SendEffect. tan, if given,
// pins the request to a caller-chosen tan.
func (c *Client) Effect(priority int, effectName string, origin string, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.effectMessage(priority, effectName, origin), expectedReply("effect", ""), c.defaultTimeout(), tan...)
}

func (c *Client) effectMessage(priority int, effectName string, origin string) *wire.Message {
	if origin == "" {
		origin = c.opts.Origin
	}
	return c.build("effect", "", map[string]any{
		"priority": priority,
		"effect":   map[string]any{"name": effectName},
		"origin":   origin,
	})
}

// ImageRequest carries the fields of an image command.
type ImageRequest struct {
	ImageData string
	Name      string
	Format    string
	Priority  int
	Duration  int
	Origin    string
}

// SendImage pushes a raw image for display without waiting for a reply.
func (c *Client) SendImage(req ImageRequest) bool {
	return c.sendRequest(c.imageMessage(req))
}

// Image is the await-response sibling of SendImage. tan, if given,
// pins the request to a caller-chosen tan.
func (c *Client) Image(req ImageRequest, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.imageMessage(req), expectedReply("image", ""), c.defaultTimeout(), tan...)
}

func (c *Client) imageMessage(req ImageRequest) *wire.Message {
	origin := req.Origin
	if origin == "" {
		origin = c.opts.Origin
	}
	return c.build("image", "", map[string]any{
		"imagedata": req.ImageData,
		"name":      req.Name,
		"format":    req.Format,
		"priority":  req.Priority,
		"duration":  req.Duration,
		"origin":    origin,
	})
}

// SendClear clears priority (no origin field, matching the protocol's own
// clear request shape) without waiting for a reply.
func (c *Client) SendClear(priority int) bool {
	return c.sendRequest(c.clearMessage(priority))
}

// Clear is the await-response sibling of SendClear. tan, if given,
// pins the request to a caller-chosen tan.
func (c *Client) Clear(priority int, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.clearMessage(priority), expectedReply("clear", ""), c.defaultTimeout(), tan...)
}

func (c *Client) clearMessage(priority int) *wire.Message {
	return c.build("clear", "", map[string]any{"priority": priority})
}

// --- componentstate / adjustment / processing / videomode / sourceselect ---

// SendSetComponent toggles a named component without waiting for a reply.
func (c *Client) SendSetComponent(component string, state bool) bool {
	return c.sendRequest(c.componentMessage(component, state))
}

// SetComponent is the await-response sibling of SendSetComponent. tan,
// if given, pins the request to a caller-chosen tan.
func (c *Client) SetComponent(component string, state bool, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.componentMessage(component, state), expectedReply("componentstate", ""), c.defaultTimeout(), tan...)
}

func (c *Client) componentMessage(component string, state bool) *wire.Message {
	return c.build("componentstate", "", map[string]any{
		"componentstate": map[string]any{"component": component, "state": state},
	})
}

// SendAdjustment pushes a color adjustment without waiting for a reply.
func (c *Client) SendAdjustment(fields map[string]any) bool {
	return c.sendRequest(c.adjustmentMessage(fields))
}

// SetAdjustment is the await-response sibling of SendAdjustment. tan,
// if given, pins the request to a caller-chosen tan.
func (c *Client) SetAdjustment(fields map[string]any, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.adjustmentMessage(fields), expectedReply("adjustment", ""), c.defaultTimeout(), tan...)
}

func (c *Client) adjustmentMessage(fields map[string]any) *wire.Message {
	return c.build("adjustment", "", map[string]any{"adjustment": fields})
}

// SendSetLedMappingType changes the image-to-LED mapping type without
// waiting for a reply.
func (c *Client) SendSetLedMappingType(mappingType string) bool {
	return c.sendRequest(c.ledMappingMessage(mappingType))
}

// SetLedMappingType is the await-response sibling. tan, if given, pins
// the request to a caller-chosen tan.
func (c *Client) SetLedMappingType(mappingType string, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.ledMappingMessage(mappingType), expectedReply("processing", ""), c.defaultTimeout(), tan...)
}

func (c *Client) ledMappingMessage(mappingType string) *wire.Message {
	return c.build("processing", "", map[string]any{"mappingType": mappingType})
}

// SendVideoMode changes the video mode without waiting for a reply.
func (c *Client) SendVideoMode(videoMode string) bool {
	return c.sendRequest(c.videoModeMessage(videoMode))
}

// SetVideoMode is the await-response sibling of SendVideoMode. tan, if
// given, pins the request to a caller-chosen tan.
func (c *Client) SetVideoMode(videoMode string, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.videoModeMessage(videoMode), expectedReply("videomode", ""), c.defaultTimeout(), tan...)
}

func (c *Client) videoModeMessage(videoMode string) *wire.Message {
	return c.build("videomode", "", map[string]any{"videoMode": videoMode})
}

// SendSourceSelect pins the visible priority without waiting for a reply.
func (c *Client) SendSourceSelect(priority int) bool {
	return c.sendRequest(c.sourceSelectMessage(priority))
}

// SourceSelect is the await-response sibling of SendSourceSelect. tan,
// if given, pins the request to a caller-chosen tan.
func (c *Client) SourceSelect(priority int, tan ...int) (*wire.Message, error) {
	return c.awaitRequest(c.sourceSelectMessage(priority), expectedReply("sourceselect", ""), c.defaultTimeout(), tan...)
}

func (c *Client) sourceSelectMessage(priority int) *wire.Message {
	return c.build("sourceselect", "", map[string]any{"priority": priority})
}

// --- instance start/stop/switch ---

// SendStartInstance starts instance without waiting for a reply.
func (c *Client) SendStartInstance(instance int) bool {
	return c.sendRequest(c.build("instance", "startInstance", map[string]any{"instance": instance}))
}

// StartInstance is the await-response sibling of SendStartInstance.
// tan, if given, pins the request to a caller-chosen tan.
func (c *Client) StartInstance(instance int, tan ...int) (*wire.Message, error) {
	msg := c.build("instance", "startInstance", map[string]any{"instance": instance})
	return c.awaitRequest(msg, expectedReply("instance", "startInstance"), c.defaultTimeout(), tan...)
}

// SendStopInstance stops instance without waiting for a reply.
func (c *Client) SendStopInstance(instance int) bool {
	return c.sendRequest(c.build("instance", "stopInstance", map[string]any{"instance": instance}))
}

// StopInstance is the await-response sibling of SendStopInstance. tan,
// if given, pins the request to a caller-chosen tan.
func (c *Client) StopInstance(instance int, tan ...int) (*wire.Message, error) {
	msg := c.build("instance", "stopInstance", map[string]any{"instance": instance})
	return c.awaitRequest(msg, expectedReply("instance", "stopInstance"), c.defaultTimeout(), tan...)
}

// SendSwitchInstance requests the server switch the connection's live
// instance without waiting for a reply. Unlike the Session FSM's own use
// of instance/switchTo during connect, a successful reply delivered here
// still flows through the dispatcher and may trigger an instance reload.
func (c *Client) SendSwitchInstance(instance int) bool {
	return c.sendRequest(c.build("instance", "switchTo", map[string]any{"instance": instance}))
}

// SwitchInstance is the await-response sibling of SendSwitchInstance.
// tan, if given, pins the request to a caller-chosen tan.
func (c *Client) SwitchInstance(instance int, tan ...int) (*wire.Message, error) {
	msg := c.build("instance", "switchTo", map[string]any{"instance": instance})
	return c.awaitRequest(msg, expectedReply("instance", "switchTo"), c.defaultTimeout(), tan...)
}

// --- ledcolors streaming toggles (send-only, no await variant) ---

// SendImageStreamStart enables raw image streaming.
func (c *Client) SendImageStreamStart() bool {
	return c.sendRequest(c.build("ledcolors", "imagestream-start", nil))
}

// SendImageStreamStop disables raw image streaming.
func (c *Client) SendImageStreamStop() bool {
	return c.sendRequest(c.build("ledcolors", "imagestream-stop", nil))
}

// SendLedStreamStart enables raw LED color streaming.
func (c *Client) SendLedStreamStart() bool {
	return c.sendRequest(c.build("ledcolors", "ledstream-start", nil))
}

// SendLedStreamStop disables raw LED color streaming.
func (c *Client) SendLedStreamStop() bool {
	return c.sendRequest(c.build("ledcolors", "ledstream-stop", nil))
}

// --- authorize family ---

// IsAuthRequired queries whether the server requires a token to log
// in. tan, if given, pins the request to a caller-chosen tan.
func (c *Client) IsAuthRequired(tan ...int) (*wire.Message, error) {
	msg := c.build("authorize", "tokenRequired", nil)
	return c.awaitRequest(msg, expectedReply("authorize", "tokenRequired"), c.defaultTimeout(), tan...)
}

// SendLogin authenticates with token without waiting for a reply. The
// Session FSM uses an equivalent request internally during connect when
// Options.Token is set; this method lets a caller re-authenticate mid
// session.
func (c *Client) SendLogin(token string) bool {
	return c.sendRequest(c.build("authorize", "login", map[string]any{"token": token}))
}

// Login is the await-response sibling of SendLogin. tan, if given,
// pins the request to a caller-chosen tan.
func (c *Client) Login(token string, tan ...int) (*wire.Message, error) {
	msg := c.build("authorize", "login", map[string]any{"token": token})
	return c.awaitRequest(msg, expectedReply("authorize", "login"), c.defaultTimeout(), tan...)
}

// SendLogout logs out without waiting for a reply. A successful reply
// schedules an orderly disconnect (dispatch.SessionHooks.ScheduleDisconnect).
func (c *Client) SendLogout() bool {
	return c.sendRequest(c.build("authorize", "logout", nil))
}

// Logout is the await-response sibling of SendLogout. tan, if given,
// pins the request to a caller-chosen tan.
func (c *Client) Logout(tan ...int) (*wire.Message, error) {
	msg := c.build("authorize", "logout", nil)
	return c.awaitRequest(msg, expectedReply("authorize", "logout"), c.defaultTimeout(), tan...)
}

// RequestTokenRequest carries the fields of an authorize/requestToken
// command. If ID is empty, a 5-character alphanumeric id is generated.
type RequestTokenRequest struct {
	Comment string
	ID      string
}

// SendRequestToken starts a human-in-the-loop token confirmation without
// waiting for a reply.
func (c *Client) SendRequestToken(req RequestTokenRequest) bool {
	return c.sendRequest(c.requestTokenMessage(req, true))
}

// RequestToken is the await-response sibling of SendRequestToken, using
// the longer Options.RequestTokenTimeout deadline (human-in-the-loop
// confirmation). tan, if given, pins the request to a caller-chosen tan.
func (c *Client) RequestToken(req RequestTokenRequest, tan ...int) (*wire.Message, error) {
	msg := c.requestTokenMessage(req, true)
	return c.awaitRequest(msg, expectedReply("authorize", "requestToken"), c.opts.RequestTokenTimeout, tan...)
}

// SendRequestTokenAbort cancels an outstanding authorize/requestToken
// confirmation.
func (c *Client) SendRequestTokenAbort(req RequestTokenRequest) bool {
	return c.sendRequest(c.requestTokenMessage(req, false))
}

func (c *Client) requestTokenMessage(req RequestTokenRequest, accept bool) *wire.Message {
	id := req.ID
	if id == "" {
		id = randomAlnumID(5)
	}
	fields := map[string]any{"comment": req.Comment, "id": id}
	if !accept {
		fields["accept"] = false
	}
	return c.build("authorize", "requestToken", fields)
}

// --- serverinfo ---

// SendServerInfoRefresh re-requests the full state snapshot without
// waiting for a reply; the reply (once it arrives) still replaces the
// cache wholesale, same as the connect-time load.
func (c *Client) SendServerInfoRefresh(subscribe []string) bool {
	return c.sendRequest(c.build("serverinfo", "", map[string]any{"subscribe": subscribe}))
}

// ServerInfoRefresh is the await-response sibling of
// SendServerInfoRefresh. tan, if given, pins the request to a
// caller-chosen tan.
func (c *Client) ServerInfoRefresh(subscribe []string, tan ...int) (*wire.Message, error) {
	msg := c.build("serverinfo", "", map[string]any{"subscribe": subscribe})
	return c.awaitRequest(msg, expectedReply("serverinfo", ""), c.defaultTimeout(), tan...)
}
