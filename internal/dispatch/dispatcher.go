// Package dispatch demultiplexes decoded messages to the tan registry, the
// state cache, and registered callbacks. It is the only component that
// touches all three.
package dispatch

import (
	"encoding/json"
	"log/slog"

	"github.com/hyperion-go/hyperion/internal/state"
	"github.com/hyperion-go/hyperion/internal/tan"
	"github.com/hyperion-go/hyperion/internal/wire"
)

// Callback receives a raw inbound message. Panics inside a callback are
// caught and logged; they must never poison the receive loop.
type Callback func(*wire.Message)

// SessionHooks lets the dispatcher ask the Session FSM to act on
// connection-level consequences of a message (instance fallback, a
// forced reload, an orderly shutdown) without owning that logic itself.
type SessionHooks interface {
	// TriggerInstanceFallback is called on every instance-update with the
	// now-running instance numbers; the session decides whether its live
	// instance fell out of that set and a fallback is required.
	TriggerInstanceFallback(running []int)
	// TriggerReload is called on every successful instance-switchTo with
	// the reported instance; the session decides whether that is a change
	// of live instance requiring a fresh serverinfo load.
	TriggerReload(instance int)
	// ScheduleDisconnect is called after a successful authorize-logout;
	// the session must wind down without attempting to reconnect.
	ScheduleDisconnect()
}

// Dispatcher routes every decoded message in a fixed order: state cache
// mutation first (always), then tan delivery, then callback invocation
// only when no parked caller accepted the message.
type Dispatcher struct {
	tans   *tan.Registry
	cache  *state.Cache
	hooks  SessionHooks
	logger *slog.Logger

	callbacks map[string]Callback
	defaultCB Callback
}

// New creates a Dispatcher wired to the given tan registry, state cache,
// and session hooks.
func New(tans *tan.Registry, cache *state.Cache, hooks SessionHooks, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		tans:      tans,
		cache:     cache,
		hooks:     hooks,
		logger:    logger,
		callbacks: map[string]Callback{},
	}
}

// SetCallback registers (or replaces) the callback for a command. The
// synthetic key "client-update" is a first-class entry in this same table.
func (d *Dispatcher) SetCallback(command string, cb Callback) {
	d.callbacks[command] = cb
}

// SetDefaultCallback registers the fallback invoked for any message
// without a more specific callback.
func (d *Dispatcher) SetDefaultCallback(cb Callback) {
	d.defaultCB = cb
}

// Dispatch applies one decoded message. It never returns an error:
// malformed sub-payloads are logged and otherwise ignored, matching the
// "trust well-formed messages" non-goal — only gross shape mismatches are
// defended against so a single bad update can't crash the receive loop.
func (d *Dispatcher) Dispatch(msg *wire.Message) {
	// Cache mutation always runs, solicited or not — an await-response
	// reply is the only way some state (e.g. the serverinfo snapshot)
	// ever reaches the cache. Only callback invocation is exclusive with
	// a tan match.
	d.updateCache(msg)

	if d.tans.Deliver(msg) {
		return
	}
	d.invokeCallback(msg)
}

func (d *Dispatcher) invokeCallback(msg *wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("callback panicked", "command", msg.Command, "recover", r)
		}
	}()

	if cb, ok := d.callbacks[msg.Command]; ok {
		cb(msg)
		return
	}
	if d.defaultCB != nil {
		d.defaultCB(msg)
	}
}

// EmitClientUpdate runs only the callback-invocation step for a synthetic
// client-update message, since that event never arrives over the wire.
func (d *Dispatcher) EmitClientUpdate(status state.Status) {
	data, err := json.Marshal(status)
	if err != nil {
		d.logger.Warn("encode client-update", "err", err)
		return
	}
	d.invokeCallback(&wire.Message{Command: "client-update", Data: data})
}

func (d *Dispatcher) updateCache(msg *wire.Message) {
	switch msg.Command {
	case "serverinfo":
		if msg.Success == nil || !*msg.Success {
			return
		}
		if err := d.cache.LoadServerInfo(msg.Info); err != nil {
			d.logger.Warn("load serverinfo", "err", err)
		}

	case "components-update":
		var payload struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			d.logger.Warn("decode components-update", "err", err)
			return
		}
		d.cache.UpdateComponent(payload.Name, payload.Enabled)

	case "adjustment-update":
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(msg.Data, &items); err != nil {
			d.logger.Warn("decode adjustment-update", "err", err)
			return
		}
		if len(items) > 0 {
			d.cache.UpdateAdjustment(items[0])
		}

	case "effects-update":
		var payload []struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			d.logger.Warn("decode effects-update", "err", err)
			return
		}
		effects := make([]state.Effect, len(payload))
		for i, e := range payload {
			effects[i] = state.Effect{Name: e.Name}
		}
		d.cache.ReplaceEffects(effects)

	case "priorities-update":
		var payload struct {
			Priorities           []state.Priority `json:"priorities"`
			PrioritiesAutoselect bool             `json:"priorities_autoselect"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			d.logger.Warn("decode priorities-update", "err", err)
			return
		}
		d.cache.ReplacePriorities(payload.Priorities, payload.PrioritiesAutoselect)

	case "leds-update":
		var payload struct {
			Leds []json.RawMessage `json:"leds"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			d.logger.Warn("decode leds-update", "err", err)
			return
		}
		leds := make([]state.Led, len(payload.Leds))
		for i, raw := range payload.Leds {
			leds[i] = state.Led{Raw: raw}
		}
		d.cache.ReplaceLeds(leds)

	case "imageToLedMapping-update":
		var payload struct {
			ImageToLedMappingType string `json:"imageToLedMappingType"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			d.logger.Warn("decode imageToLedMapping-update", "err", err)
			return
		}
		d.cache.SetImageToLedMappingType(payload.ImageToLedMappingType)

	case "sessions-update":
		var raws []json.RawMessage
		if err := json.Unmarshal(msg.Data, &raws); err != nil {
			d.logger.Warn("decode sessions-update", "err", err)
			return
		}
		sessions := make([]state.Session, len(raws))
		for i, raw := range raws {
			sessions[i] = state.Session{Raw: raw}
		}
		d.cache.ReplaceSessions(sessions)

	case "videomode-update":
		var payload struct {
			VideoMode string `json:"videomode"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			d.logger.Warn("decode videomode-update", "err", err)
			return
		}
		d.cache.SetVideoMode(payload.VideoMode)

	case "instance-update":
		var instances []state.Instance
		if err := json.Unmarshal(msg.Data, &instances); err != nil {
			d.logger.Warn("decode instance-update", "err", err)
			return
		}
		running := d.cache.ReplaceInstances(instances)
		d.hooks.TriggerInstanceFallback(running)

	case "instance-switchTo":
		if msg.Success == nil || !*msg.Success {
			return
		}
		var info struct {
			Instance int `json:"instance"`
		}
		if err := json.Unmarshal(msg.Info, &info); err != nil {
			d.logger.Warn("decode instance-switchTo info", "err", err)
			return
		}
		d.hooks.TriggerReload(info.Instance)

	case "authorize-login":
		// handled by the await-response caller; no cache mutation.

	case "authorize-logout":
		if msg.Success != nil && *msg.Success {
			d.hooks.ScheduleDisconnect()
		}
	}
}
