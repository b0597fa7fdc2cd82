package entity

import "time"

// Device is a registered terminal. Key holds credential material reserved for
// verifying the envelope signature; nothing in the request path reads it yet.
type Device struct {
	DeviceID  string
	Key       string
	CreatedAt time.Time
}
