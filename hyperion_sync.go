package hyperion

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/hyperion-go/hyperion/internal/state"
	"github.com/hyperion-go/hyperion/internal/syncrun"
	"github.com/hyperion-go/hyperion/internal/wire"
)

// ThreadedClient is the synchronous façade over Client: it runs a
// dedicated background goroutine (the "event loop" of spec.md §5) and
// submits every operation to it via a syncrun.Queue, blocking the caller
// until that submission completes. It exists because the core client is
// defined as a single-threaded cooperative design with an external
// thread-adapter contract (spec.md §6); Go's Client is already safe for
// direct concurrent use; ThreadedClient is for callers that want the
// stricter single-event-loop serialization the original contract
// describes, or a blocking API shape.
type ThreadedClient struct {
	client *Client
	queue  *syncrun.Queue
}

// NewThreaded constructs a ThreadedClient. It does not connect.
func NewThreaded(opts *Options) *ThreadedClient {
	return &ThreadedClient{
		client: New(opts),
		queue:  syncrun.New(),
	}
}

// WaitForClientInit blocks until the first Connect/ConnectRaw attempt has
// completed, satisfying spec.md §6's wait_for_client_init barrier.
func (t *ThreadedClient) WaitForClientInit() {
	<-t.client.InitDone()
}

// Close stops the background event-loop goroutine. It does not disconnect
// the underlying Client; call Disconnect first.
func (t *ThreadedClient) Close() {
	t.queue.Close()
}

// Client returns the wrapped asynchronous Client, for callers that need
// an escape hatch (e.g. to register callbacks before the first Connect).
func (t *ThreadedClient) Client() *Client { return t.client }

func (t *ThreadedClient) runBool(fn func() bool) bool {
	var ok bool
	t.queue.SubmitAndWait(func() { ok = fn() })
	return ok
}

func (t *ThreadedClient) runReply(fn func() (*wire.Message, error)) (*wire.Message, error) {
	var reply *wire.Message
	var err error
	t.queue.SubmitAndWait(func() { reply, err = fn() })
	return reply, err
}

// --- connection lifecycle ---

func (t *ThreadedClient) Connect() bool      { return t.runBool(t.client.Connect) }
func (t *ThreadedClient) ConnectRaw() bool   { return t.runBool(t.client.ConnectRaw) }
func (t *ThreadedClient) Disconnect() bool   { return t.runBool(t.client.Disconnect) }

// --- read-only properties (spec.md §6: "every read-only property of the
// core must also be exposed"); these never touch the network so they are
// not routed through the queue. ---

func (t *ThreadedClient) ClientID() string                         { return t.client.ClientID() }
func (t *ThreadedClient) InstanceUUID() uuid.UUID                  { return t.client.InstanceUUID() }
func (t *ThreadedClient) TargetInstance() int                      { return t.client.TargetInstance() }
func (t *ThreadedClient) Status() state.Status                     { return t.client.Status() }
func (t *ThreadedClient) IsOn(components ...string) bool           { return t.client.IsOn(components...) }
func (t *ThreadedClient) VisiblePriority() (state.Priority, bool)  { return t.client.VisiblePriority() }
func (t *ThreadedClient) Priorities() []state.Priority             { return t.client.Priorities() }
func (t *ThreadedClient) PrioritiesAutoselect() bool               { return t.client.PrioritiesAutoselect() }
func (t *ThreadedClient) Instances() []state.Instance              { return t.client.Instances() }
func (t *ThreadedClient) AllInstances() []state.Instance           { return t.client.AllInstances() }
func (t *ThreadedClient) Components() map[string]bool              { return t.client.Components() }
func (t *ThreadedClient) Effects() []state.Effect                  { return t.client.Effects() }
func (t *ThreadedClient) Leds() []state.Led                        { return t.client.Leds() }
func (t *ThreadedClient) VideoMode() string                        { return t.client.VideoMode() }
func (t *ThreadedClient) ImageToLedMappingType() string            { return t.client.ImageToLedMappingType() }
func (t *ThreadedClient) Sessions() []state.Session                { return t.client.Sessions() }
func (t *ThreadedClient) CachedAdjustment() map[string]json.RawMessage { return t.client.CachedAdjustment() }

// --- callbacks ---

func (t *ThreadedClient) SetCallback(command string, cb Callback) {
	t.client.SetCallback(command, cb)
}

func (t *ThreadedClient) SetDefaultCallback(cb Callback) {
	t.client.SetDefaultCallback(cb)
}

// --- color / effect / image / clear ---

func (t *ThreadedClient) SendColor(priority int, color [3]int, origin string) bool {
	return t.runBool(func() bool { return t.client.SendColor(priority, color, origin) })
}

func (t *ThreadedClient) Color(priority int, color [3]int, origin string, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.Color(priority, color, origin, tan...) })
}

func (t *ThreadedClient) SendEffect(priority int, effectName, origin string) bool {
	return t.runBool(func() bool { return t.client.SendEffect(priority, effectName, origin) })
}

func (t *ThreadedClient) Effect(priority int, effectName, origin string, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.Effect(priority, effectName, origin, tan...) })
}

func (t *ThreadedClient) SendImage(req ImageRequest) bool {
	return t.runBool(func() bool { return t.client.SendImage(req) })
}

func (t *ThreadedClient) Image(req ImageRequest, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.Image(req, tan...) })
}

func (t *ThreadedClient) SendClear(priority int) bool {
	return t.runBool(func() bool { return t.client.SendClear(priority) })
}

func (t *ThreadedClient) Clear(priority int, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.Clear(priority, tan...) })
}

// --- componentstate / adjustment / processing / videomode / sourceselect ---

func (t *ThreadedClient) SendSetComponent(component string, state bool) bool {
	return t.runBool(func() bool { return t.client.SendSetComponent(component, state) })
}

func (t *ThreadedClient) SetComponent(component string, onOff bool, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.SetComponent(component, onOff, tan...) })
}

func (t *ThreadedClient) SendAdjustment(fields map[string]any) bool {
	return t.runBool(func() bool { return t.client.SendAdjustment(fields) })
}

func (t *ThreadedClient) SetAdjustment(fields map[string]any, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.SetAdjustment(fields, tan...) })
}

func (t *ThreadedClient) SendSetLedMappingType(mappingType string) bool {
	return t.runBool(func() bool { return t.client.SendSetLedMappingType(mappingType) })
}

func (t *ThreadedClient) SetLedMappingType(mappingType string, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.SetLedMappingType(mappingType, tan...) })
}

func (t *ThreadedClient) SendVideoMode(videoMode string) bool {
	return t.runBool(func() bool { return t.client.SendVideoMode(videoMode) })
}

func (t *ThreadedClient) SetVideoMode(videoMode string, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.SetVideoMode(videoMode, tan...) })
}

func (t *ThreadedClient) SendSourceSelect(priority int) bool {
	return t.runBool(func() bool { return t.client.SendSourceSelect(priority) })
}

func (t *ThreadedClient) SourceSelect(priority int, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.SourceSelect(priority, tan...) })
}

// --- instance lifecycle ---

func (t *ThreadedClient) SendStartInstance(instance int) bool {
	return t.runBool(func() bool { return t.client.SendStartInstance(instance) })
}

func (t *ThreadedClient) StartInstance(instance int, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.StartInstance(instance, tan...) })
}

func (t *ThreadedClient) SendStopInstance(instance int) bool {
	return t.runBool(func() bool { return t.client.SendStopInstance(instance) })
}

func (t *ThreadedClient) StopInstance(instance int, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.StopInstance(instance, tan...) })
}

func (t *ThreadedClient) SendSwitchInstance(instance int) bool {
	return t.runBool(func() bool { return t.client.SendSwitchInstance(instance) })
}

func (t *ThreadedClient) SwitchInstance(instance int, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.SwitchInstance(instance, tan...) })
}

// --- ledcolors streaming toggles ---

func (t *ThreadedClient) SendImageStreamStart() bool { return t.runBool(t.client.SendImageStreamStart) }
func (t *ThreadedClient) SendImageStreamStop() bool  { return t.runBool(t.client.SendImageStreamStop) }
func (t *ThreadedClient) SendLedStreamStart() bool   { return t.runBool(t.client.SendLedStreamStart) }
func (t *ThreadedClient) SendLedStreamStop() bool    { return t.runBool(t.client.SendLedStreamStop) }

// --- authorize family ---

func (t *ThreadedClient) IsAuthRequired(tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.IsAuthRequired(tan...) })
}

func (t *ThreadedClient) SendLogin(token string) bool {
	return t.runBool(func() bool { return t.client.SendLogin(token) })
}

func (t *ThreadedClient) Login(token string, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.Login(token, tan...) })
}

func (t *ThreadedClient) SendLogout() bool { return t.runBool(t.client.SendLogout) }

func (t *ThreadedClient) Logout(tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.Logout(tan...) })
}

func (t *ThreadedClient) SendRequestToken(req RequestTokenRequest) bool {
	return t.runBool(func() bool { return t.client.SendRequestToken(req) })
}

func (t *ThreadedClient) RequestToken(req RequestTokenRequest, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.RequestToken(req, tan...) })
}

func (t *ThreadedClient) SendRequestTokenAbort(req RequestTokenRequest) bool {
	return t.runBool(func() bool { return t.client.SendRequestTokenAbort(req) })
}

// --- serverinfo ---

func (t *ThreadedClient) SendServerInfoRefresh(subscribe []string) bool {
	return t.runBool(func() bool { return t.client.SendServerInfoRefresh(subscribe) })
}

func (t *ThreadedClient) ServerInfoRefresh(subscribe []string, tan ...int) (*wire.Message, error) {
	return t.runReply(func() (*wire.Message, error) { return t.client.ServerInfoRefresh(subscribe, tan...) })
}
