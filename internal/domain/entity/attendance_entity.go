package entity

import "time"

// Attendance is an immutable event row. Timestamp is the device-reported event time,
// not the time the server received it.
type Attendance struct {
	AttendanceID int64
	UserID       string
	Timestamp    time.Time
}
