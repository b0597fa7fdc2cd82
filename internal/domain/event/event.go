// Package event describes the ledger changes published after a successful commit.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
)

type Type string

const (
	UserCreated      Type = "user.created"
	TemplateEnrolled Type = "template.enrolled"
	AttendanceMarked Type = "attendance.marked"
)

// Event is the JSON message put on the ledger queue.
// Exactly one of User, Template or Records is set, matching Type.
type Event struct {
	ID         string       `json:"id"`
	Type       Type         `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
	User       *UserDoc     `json:"user,omitempty"`
	Template   *TemplateDoc `json:"template,omitempty"`
	Records    []RecordDoc  `json:"records,omitempty"`
}

type UserDoc struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type TemplateDoc struct {
	TemplateID   int64     `json:"template_id"`
	UserID       string    `json:"user_id"`
	TemplateData string    `json:"template_data"`
	CreatedAt    time.Time `json:"created_at"`
}

type RecordDoc struct {
	AttendanceID int64  `json:"attendance_id"`
	UserID       string `json:"user_id"`
	Timestamp    string `json:"timestamp"`
}

func NewUserCreated(u *entity.User, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       UserCreated,
		OccurredAt: at.UTC(),
		User:       &UserDoc{UserID: u.UserID, Name: u.Name, Tags: u.Tags, CreatedAt: u.CreatedAt.UTC()},
	}
}

func NewTemplateEnrolled(t *entity.Template, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TemplateEnrolled,
		OccurredAt: at.UTC(),
		Template: &TemplateDoc{
			TemplateID:   t.TemplateID,
			UserID:       t.UserID,
			TemplateData: t.TemplateData,
			CreatedAt:    t.CreatedAt.UTC(),
		},
	}
}

func NewAttendanceMarked(records []entity.Attendance, at time.Time) Event {
	docs := make([]RecordDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, RecordDoc{
			AttendanceID: r.AttendanceID,
			UserID:       r.UserID,
			Timestamp:    entity.FormatTimestamp(r.Timestamp),
		})
	}
	return Event{ID: uuid.NewString(), Type: AttendanceMarked, OccurredAt: at.UTC(), Records: docs}
}
