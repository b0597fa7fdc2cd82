// Package sink projects committed ledger events into the search index and the
// template archive. It runs in the ledger worker, never in the request path.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/internal/domain/event"
	"github.com/oksasatya/attendance-ledger/pkg/helpers"
)

// ErrBadMessage marks deliveries that can never be processed and must not be requeued.
var ErrBadMessage = errors.New("undecodable ledger event")

// ObjectStore archives blobs. *helpers.GCSObjectStore satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type Sink struct {
	ES              *elasticsearch.Client // nil skips indexing
	UsersIndex      string
	AttendanceIndex string
	Objects         ObjectStore // nil skips template archiving
	Logger          *logrus.Logger
}

// HandleMessage decodes a queue body and applies it.
func (s *Sink) HandleMessage(ctx context.Context, body []byte) error {
	var ev event.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return s.Handle(ctx, ev)
}

func (s *Sink) Handle(ctx context.Context, ev event.Event) error {
	switch ev.Type {
	case event.UserCreated:
		if ev.User == nil {
			return fmt.Errorf("%w: %s without user", ErrBadMessage, ev.Type)
		}
		return s.indexUser(ctx, ev.User)
	case event.TemplateEnrolled:
		if ev.Template == nil {
			return fmt.Errorf("%w: %s without template", ErrBadMessage, ev.Type)
		}
		return s.archiveTemplate(ctx, ev.Template)
	case event.AttendanceMarked:
		return s.indexAttendance(ctx, ev.Records)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrBadMessage, ev.Type)
	}
}

func (s *Sink) indexUser(ctx context.Context, u *event.UserDoc) error {
	if s.ES == nil || s.UsersIndex == "" {
		return nil
	}
	return helpers.IndexDocument(ctx, s.ES, s.UsersIndex, u.UserID, u)
}

func (s *Sink) indexAttendance(ctx context.Context, records []event.RecordDoc) error {
	if s.ES == nil || s.AttendanceIndex == "" {
		return nil
	}
	for _, r := range records {
		// attendance_id as document id makes redelivery idempotent
		if err := helpers.IndexDocument(ctx, s.ES, s.AttendanceIndex, strconv.FormatInt(r.AttendanceID, 10), r); err != nil {
			return err
		}
	}
	return nil
}

// TemplateObjectPath is where a template blob is archived.
func TemplateObjectPath(userID string, templateID int64) string {
	return path.Join("templates", userID, strconv.FormatInt(templateID, 10)+".tpl")
}

func (s *Sink) archiveTemplate(ctx context.Context, t *event.TemplateDoc) error {
	if s.Objects == nil {
		return nil
	}
	url, err := s.Objects.Put(ctx, TemplateObjectPath(t.UserID, t.TemplateID), "text/plain", strings.NewReader(t.TemplateData))
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": t.UserID, "template_id": t.TemplateID, "url": url}).Debug("template archived")
	}
	return nil
}
