// Package state is the in-memory mirror of server state: components,
// priorities, effects, LED layout, instance list, discovered sessions,
// video mode, and color adjustment. The mirrored entities are mutated only
// by the dispatcher (the session resets the cache at the start of each
// connect attempt and records connection status in it); every accessor returns a stable copy so composite reads never observe a
// half-applied update.
package state

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Cache is the single-writer, many-reader state mirror for one session.
type Cache struct {
	mu sync.RWMutex

	components           map[string]bool
	adjustment            map[string]json.RawMessage
	effects               []Effect
	leds                  []Led
	priorities            []Priority
	prioritiesAutoselect  bool
	videoMode             string
	imageToLedMappingType string
	sessions              []Session
	instances             []Instance

	status Status
}

// New creates an empty cache. Reset is called again at the start of every
// connect attempt, so a freshly constructed and a freshly reset cache
// are equivalent.
func New() *Cache {
	c := &Cache{}
	c.Reset()
	return c
}

// Reset clears all mirrored entities and connection status. Called at the
// start of every connect attempt.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = map[string]bool{}
	c.adjustment = map[string]json.RawMessage{}
	c.effects = nil
	c.leds = nil
	c.priorities = nil
	c.prioritiesAutoselect = false
	c.videoMode = ""
	c.imageToLedMappingType = ""
	c.sessions = nil
	c.instances = nil
	c.status = Status{}
}

// serverInfoPayload mirrors the `info` object of a successful serverinfo
// reply.
type serverInfoPayload struct {
	Components            []Component                `json:"components"`
	Adjustment             []map[string]json.RawMessage `json:"adjustment"`
	Effects                []effectPayload             `json:"effects"`
	Leds                   []json.RawMessage           `json:"leds"`
	Priorities             []Priority                  `json:"priorities"`
	PrioritiesAutoselect   bool                         `json:"priorities_autoselect"`
	VideoMode              string                       `json:"videomode"`
	ImageToLedMappingType  string                       `json:"imageToLedMappingType"`
	Sessions               []json.RawMessage            `json:"sessions"`
	Instance               []Instance                   `json:"instance"`
}

type effectPayload struct {
	Name string `json:"name"`
}

// LoadServerInfo replaces the entire snapshot wholesale from a serverinfo
// reply's info object, per the load-state transition of the session FSM.
func (c *Cache) LoadServerInfo(info json.RawMessage) error {
	var payload serverInfoPayload
	if err := json.Unmarshal(info, &payload); err != nil {
		return fmt.Errorf("state: decode serverinfo: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.components = map[string]bool{}
	for _, comp := range payload.Components {
		c.components[comp.Name] = comp.Enabled
	}

	c.adjustment = map[string]json.RawMessage{}
	if len(payload.Adjustment) > 0 {
		for k, v := range payload.Adjustment[0] {
			c.adjustment[k] = v
		}
	}

	c.effects = make([]Effect, len(payload.Effects))
	for i, e := range payload.Effects {
		c.effects[i] = Effect{Name: e.Name}
	}

	c.leds = make([]Led, len(payload.Leds))
	for i, raw := range payload.Leds {
		c.leds[i] = Led{Raw: raw}
	}

	c.priorities = append([]Priority(nil), payload.Priorities...)
	c.prioritiesAutoselect = payload.PrioritiesAutoselect
	c.videoMode = payload.VideoMode
	c.imageToLedMappingType = payload.ImageToLedMappingType

	c.sessions = make([]Session, len(payload.Sessions))
	for i, raw := range payload.Sessions {
		c.sessions[i] = Session{Raw: raw}
	}

	c.instances = append([]Instance(nil), payload.Instance...)

	return nil
}

// UpdateComponent upserts a single component's enabled flag, per a
// components-update message's data object.
func (c *Cache) UpdateComponent(name string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[name] = enabled
}

// UpdateAdjustment merges fields from an adjustment-update message's
// data[0] object into the single tracked adjustment.
func (c *Cache) UpdateAdjustment(fields map[string]json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adjustment == nil {
		c.adjustment = map[string]json.RawMessage{}
	}
	for k, v := range fields {
		c.adjustment[k] = v
	}
}

// ReplaceEffects replaces the effects list wholesale, per effects-update.
func (c *Cache) ReplaceEffects(effects []Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.effects = append([]Effect(nil), effects...)
}

// ReplacePriorities replaces priorities and the autoselect flag, per
// priorities-update.
func (c *Cache) ReplacePriorities(priorities []Priority, autoselect bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.priorities = append([]Priority(nil), priorities...)
	c.prioritiesAutoselect = autoselect
}

// ReplaceLeds replaces the LED layout, per leds-update.
func (c *Cache) ReplaceLeds(leds []Led) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leds = append([]Led(nil), leds...)
}

// SetImageToLedMappingType replaces the mapping type, per
// imageToLedMapping-update.
func (c *Cache) SetImageToLedMappingType(mappingType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageToLedMappingType = mappingType
}

// ReplaceSessions replaces the discovery session list, per sessions-update.
func (c *Cache) ReplaceSessions(sessions []Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append([]Session(nil), sessions...)
}

// SetVideoMode replaces the video mode, per videomode-update.
func (c *Cache) SetVideoMode(videoMode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoMode = videoMode
}

// ReplaceInstances replaces the instance list, per instance-update. It
// returns the still-running instance numbers so the caller (the
// dispatcher, via the Session FSM's fallback hook) can detect whether the live instance fell out of the running set
// and trigger an instance fallback.
func (c *Cache) ReplaceInstances(instances []Instance) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = append([]Instance(nil), instances...)

	running := make([]int, 0, len(instances))
	for _, inst := range instances {
		if inst.Running {
			running = append(running, inst.Instance)
		}
	}
	return running
}

// SetStatus overwrites the connection status and reports whether it
// actually changed, so the caller only emits a synthetic client-update
// when a field differs.
func (c *Cache) SetStatus(s Status) (changed bool, newStatus Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Instance = cloneIntPtr(s.Instance)
	if c.status.equal(s) {
		return false, c.status
	}
	c.status = s
	return true, c.status
}

// Status returns a copy of the current connection status.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Connected:   c.status.Connected,
		LoggedIn:    c.status.LoggedIn,
		Instance:    cloneIntPtr(c.status.Instance),
		LoadedState: c.status.LoadedState,
	}
}

// IsOn reports whether every named component is enabled. An empty or nil
// list is equivalent to [ALL]. Unknown names report false unless a prior
// update introduced them.
func (c *Cache) IsOn(components []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := components
	if len(names) == 0 {
		names = []string{"ALL"}
	}
	for _, name := range names {
		if !c.components[name] {
			return false
		}
	}
	return true
}

// VisiblePriority returns the first priority entry whose Visible flag is
// true, or false if none is.
func (c *Cache) VisiblePriority() (Priority, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.priorities {
		if p.Visible {
			return p, true
		}
	}
	return Priority{}, false
}

// Priorities returns a stable copy of the full priorities list.
func (c *Cache) Priorities() []Priority {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Priority(nil), c.priorities...)
}

// PrioritiesAutoselect reports the last-known autoselect flag.
func (c *Cache) PrioritiesAutoselect() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prioritiesAutoselect
}

// Instances returns the subset of instance records with Running=true.
func (c *Cache) Instances() []Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	running := make([]Instance, 0, len(c.instances))
	for _, inst := range c.instances {
		if inst.Running {
			running = append(running, inst)
		}
	}
	return running
}

// AllInstances returns a stable copy of every known instance record,
// running or not.
func (c *Cache) AllInstances() []Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Instance(nil), c.instances...)
}

// Components returns a stable copy of the component map.
func (c *Cache) Components() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.components))
	for k, v := range c.components {
		out[k] = v
	}
	return out
}

// Effects returns a stable copy of the effects list.
func (c *Cache) Effects() []Effect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Effect(nil), c.effects...)
}

// Leds returns a stable copy of the LED layout.
func (c *Cache) Leds() []Led {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Led(nil), c.leds...)
}

// VideoMode returns the last-known video mode.
func (c *Cache) VideoMode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.videoMode
}

// ImageToLedMappingType returns the last-known mapping type.
func (c *Cache) ImageToLedMappingType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.imageToLedMappingType
}

// Sessions returns a stable copy of the discovery session list.
func (c *Cache) Sessions() []Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Session(nil), c.sessions...)
}

// Adjustment returns a stable copy of the tracked adjustment fields.
func (c *Cache) Adjustment() map[string]json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(c.adjustment))
	for k, v := range c.adjustment {
		out[k] = v
	}
	return out
}
