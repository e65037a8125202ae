package types

import "time"

// AccessDecision is the result of evaluating one scan.  It is returned
// synchronously to the device and is not persisted itself; only its side
// effects (attempt count, last-access time, audit row) are.
type AccessDecision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason"`
	OpenDoor        bool   `json:"open_door"`
	DoorOpenSeconds int    `json:"door_open_seconds"`
}

// AccessEvent is the live-stream payload broadcast to dashboard subscribers
// after each decision.  The JSON key names are consumed by the UI as-is.
type AccessEvent struct {
	UserID        string    `json:"userId"`
	ClientName    string    `json:"clientName"`
	Allowed       bool      `json:"allowed"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
	BiometricType string    `json:"biometricType"`
}
