package entity

import "time"

// Template is an opaque biometric reference blob. TemplateData is kept exactly as
// submitted and never decoded.
type Template struct {
	TemplateID   int64
	UserID       string
	TemplateData string
	CreatedAt    time.Time
}
