// Package state persists client state across invocations.
//
// The state file (~/.local/state/sheetctl/state.json) holds the last used
// server URL and the cookie jar, so a login survives until the server
// expires the session. The file contains session cookies and is kept
// readable by the owner only.
package state

import "time"

// State is the persisted state file.
type State struct {
	Server  string              `json:"server,omitempty"`
	Cookies map[string][]Cookie `json:"cookies,omitempty"`
}

// Cookie is one stored cookie, keyed under its server host. Only the
// fields the client replays are kept.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}
