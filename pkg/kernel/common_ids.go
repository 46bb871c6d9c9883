package kernel

import "strings"

// DefaultSessionID is used when a caller does not identify its conversation.
const DefaultSessionID SessionID = "default"

// SessionID identifies one conversation. It is opaque: no format is imposed.
type SessionID string

// NewSessionID trims id and falls back to DefaultSessionID when it is empty.
func NewSessionID(id string) SessionID {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	return SessionID(id)
}

func (s SessionID) String() string { return string(s) }
func (s SessionID) IsEmpty() bool  { return string(s) == "" }

// RequestID identifies one inbound request across log lines.
type RequestID string

func NewRequestID(id string) RequestID { return RequestID(id) }
func (r RequestID) String() string     { return string(r) }
func (r RequestID) IsEmpty() bool      { return string(r) == "" }
