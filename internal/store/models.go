package store

import "time"

// Device is a registered remote peripheral.
type Device struct {
	IEEEAddress  string    `json:"ieee_address"`
	Model        string    `json:"model,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	Profile      string    `json:"profile,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	LastAction   string    `json:"last_action,omitempty"`
	LastActionAt time.Time `json:"last_action_at,omitempty"`
}

// ActionRecord is one decoded action kept in the per-device history for
// diagnostics. Evidence is the originating payload in hex.
type ActionRecord struct {
	Action   string    `json:"action"`
	Source   string    `json:"source"`
	Time     time.Time `json:"time"`
	Evidence string    `json:"evidence,omitempty"`
}
