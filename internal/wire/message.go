// Package wire implements the newline-delimited JSON framing and the
// Message envelope shared by every request and reply on the connection.
package wire

import (
	"encoding/json"
	"fmt"
)

// knownFields lists the envelope fields every Message can carry outside of
// its command-specific payload. They get dedicated struct fields; anything
// else round-trips through Extra.
var knownFields = map[string]bool{
	"command": true, "subcommand": true, "tan": true,
	"success": true, "info": true, "data": true, "error": true,
}

// Message is one line of the wire protocol: a JSON object with a mandatory
// command, optional subcommand/tan/success/info/data/error, and an open set
// of command-specific fields (token, origin, id, accept, priority, color,
// subscribe, ...) held in Extra.
//
// Marshaling always emits keys in sorted order (encoding/json sorts map
// keys when encoding a Go map), which keeps wire output reproducible across
// runs and implementations.
type Message struct {
	Command    string
	Subcommand string
	Tan        int
	Success    *bool
	Info       json.RawMessage
	Data       json.RawMessage
	Error      string
	Extra      map[string]json.RawMessage
}

// New creates a Message for the given command with an empty Extra set.
func New(command string) *Message {
	return &Message{Command: command, Extra: map[string]json.RawMessage{}}
}

// IsUpdate reports whether the command carries the push-update suffix.
func (m *Message) IsUpdate() bool {
	return hasUpdateSuffix(m.Command)
}

func hasUpdateSuffix(command string) bool {
	const suffix = "-update"
	return len(command) > len(suffix) && command[len(command)-len(suffix):] == suffix
}

// Set stores a command-specific field, marshaling value to JSON. Known
// envelope keys (command, subcommand, tan, success, info, data, error) are
// rejected; use the dedicated struct fields for those.
func (m *Message) Set(key string, value any) error {
	if knownFields[key] {
		return fmt.Errorf("wire: %q is an envelope field, set it directly", key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("wire: marshal field %q: %w", key, err)
	}
	if m.Extra == nil {
		m.Extra = map[string]json.RawMessage{}
	}
	m.Extra[key] = raw
	return nil
}

// GetString reads an Extra string field.
func (m *Message) GetString(key string) (string, bool) {
	raw, ok := m.Extra[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// GetInt reads an Extra integer field.
func (m *Message) GetInt(key string) (int, bool) {
	raw, ok := m.Extra[key]
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON implements json.Marshaler by assembling the envelope and Extra
// fields into one map and letting encoding/json sort the keys.
func (m *Message) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	for k, v := range m.Extra {
		out[k] = v
	}

	commandRaw, err := json.Marshal(m.Command)
	if err != nil {
		return nil, err
	}
	out["command"] = commandRaw

	if m.Subcommand != "" {
		raw, err := json.Marshal(m.Subcommand)
		if err != nil {
			return nil, err
		}
		out["subcommand"] = raw
	}
	if m.Tan != 0 {
		raw, err := json.Marshal(m.Tan)
		if err != nil {
			return nil, err
		}
		out["tan"] = raw
	}
	if m.Success != nil {
		raw, err := json.Marshal(*m.Success)
		if err != nil {
			return nil, err
		}
		out["success"] = raw
	}
	if len(m.Info) > 0 {
		out["info"] = m.Info
	}
	if len(m.Data) > 0 {
		out["data"] = m.Data
	}
	if m.Error != "" {
		raw, err := json.Marshal(m.Error)
		if err != nil {
			return nil, err
		}
		out["error"] = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler, splitting known envelope
// fields from the command-specific remainder.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("wire: decode message: %w", err)
	}

	extra := map[string]json.RawMessage{}
	for k, v := range raw {
		switch k {
		case "command":
			if err := json.Unmarshal(v, &m.Command); err != nil {
				return fmt.Errorf("wire: decode command: %w", err)
			}
		case "subcommand":
			if err := json.Unmarshal(v, &m.Subcommand); err != nil {
				return fmt.Errorf("wire: decode subcommand: %w", err)
			}
		case "tan":
			if err := json.Unmarshal(v, &m.Tan); err != nil {
				return fmt.Errorf("wire: decode tan: %w", err)
			}
		case "success":
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("wire: decode success: %w", err)
			}
			m.Success = &b
		case "info":
			m.Info = append(json.RawMessage(nil), v...)
		case "data":
			m.Data = append(json.RawMessage(nil), v...)
		case "error":
			if err := json.Unmarshal(v, &m.Error); err != nil {
				return fmt.Errorf("wire: decode error: %w", err)
			}
		default:
			extra[k] = v
		}
	}
	if m.Command == "" {
		return fmt.Errorf("wire: message missing command field")
	}
	m.Extra = extra
	return nil
}

// Framer turns Messages into wire lines and back. Splitting the byte
// stream into lines is the Transport's job (it owns the connection); the
// Framer only ever sees one line at a time.
type Framer struct{}

// NewFramer returns a stateless Framer. It has no fields because encoding
// and decoding a single line needs none; it exists as a named component so
// callers depend on "the framer" rather than on package-level functions.
func NewFramer() Framer { return Framer{} }

// Encode serializes msg with sorted keys, ready to hand to
// Transport.WriteLine (which appends the trailing newline).
func (Framer) Encode(msg *Message) ([]byte, error) {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("wire: encode message: %w", err)
	}
	return encoded, nil
}

// Decode parses one line (as returned by Transport.ReadLine, without its
// trailing newline) into a Message. A failure is reported as a
// *ParseError, which the Session FSM treats like a transport failure.
func (Framer) Decode(line []byte) (*Message, error) {
	msg := &Message{}
	if err := json.Unmarshal(line, msg); err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	return msg, nil
}

// ParseError reports a line that failed to decode as a Message.
type ParseError struct {
	Line []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wire: malformed line: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
