// Package application holds the ledger command handlers. Every operation reads
// fresh state from the injected repository.Ledger and commits before returning.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/event"
	"github.com/oksasatya/attendance-ledger/internal/domain/ledgererr"
	repo "github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

// EventPublisher receives ledger events after their transaction committed.
// *helpers.RabbitPublisher satisfies it.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

type Service struct {
	Ledger repo.Ledger
	Events EventPublisher
	Logger *logrus.Logger
	Now    func() time.Time
}

// NewService wires the ledger handlers. events may be nil to disable publishing.
func NewService(ledger repo.Ledger, events EventPublisher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{Ledger: ledger, Events: events, Logger: logger, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type CreateUserInput struct {
	UserID string
	Name   string
	Tags   []string
}

// CreateUser inserts a new user. The store's unique constraint decides races, so a
// concurrent loser gets DuplicateUser like any sequential repeat.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	if in.UserID == "" || in.Name == "" {
		return nil, ledgererr.New(ledgererr.MissingFields, "user_id and name are required")
	}
	u := entity.NewUser(in.UserID, in.Name, in.Tags)
	if err := s.Ledger.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ledgererr.Newf(ledgererr.DuplicateUser, "user %s already exists", in.UserID).
				With("user_id", in.UserID)
		}
		return nil, s.storeFailure("create user", err, logrus.Fields{"user_id": in.UserID})
	}
	usersCreated.Add(1)
	s.publish(ctx, event.NewUserCreated(u, s.now()))
	return u, nil
}

// EnrollUser stores a template for an existing user. The foreign key is the
// existence check, so a missing user never leaves a template behind.
func (s *Service) EnrollUser(ctx context.Context, userID, templateData string) (*entity.Template, error) {
	if userID == "" || templateData == "" {
		return nil, ledgererr.New(ledgererr.MissingFields, "user_id and template_data are required")
	}
	t := &entity.Template{UserID: userID, TemplateData: templateData}
	if err := s.Ledger.Templates().Create(ctx, t); err != nil {
		if errors.Is(err, repo.ErrForeignKey) {
			return nil, userNotFound(userID)
		}
		return nil, s.storeFailure("enroll user", err, logrus.Fields{"user_id": userID})
	}
	templatesEnrolled.Add(1)
	s.publish(ctx, event.NewTemplateEnrolled(t, s.now()))
	return t, nil
}

// UsersByTags returns users whose tag set contains every requested tag.
func (s *Service) UsersByTags(ctx context.Context, tags []string) ([]entity.User, error) {
	tags = entity.NormalizeTags(tags)
	if len(tags) == 0 {
		return nil, ledgererr.New(ledgererr.MissingTags, "tags must contain at least one tag")
	}
	users, err := s.Ledger.Users().ListByTags(ctx, tags)
	if err != nil {
		return nil, s.storeFailure("list users by tags", err, logrus.Fields{"tags": tags})
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

// Users lists every user in creation order.
func (s *Service) Users(ctx context.Context) ([]entity.User, error) {
	users, err := s.Ledger.Users().List(ctx)
	if err != nil {
		return nil, s.storeFailure("list users", err, nil)
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

// AttendanceSeries is one user's event times inside a queried window.
type AttendanceSeries struct {
	UserID     string
	Timestamps []time.Time
}

// AttendanceInRange returns, per requested user and in request order, the
// ascending event times with start <= t <= end. start > end yields empty series.
func (s *Service) AttendanceInRange(ctx context.Context, userIDs []string, start, end string) ([]AttendanceSeries, error) {
	if len(userIDs) == 0 || start == "" || end == "" {
		return nil, ledgererr.New(ledgererr.MissingParameters, "user_ids, start_time and end_time are required")
	}
	from, err := entity.ParseTimestamp(start)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.TimeFormatError, "start_time must be YYYY-MM-DDTHH:MM:SSZ", err).
			With("start_time", start)
	}
	to, err := entity.ParseTimestamp(end)
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.TimeFormatError, "end_time must be YYYY-MM-DDTHH:MM:SSZ", err).
			With("end_time", end)
	}

	out := make([]AttendanceSeries, 0, len(userIDs))
	for _, id := range userIDs {
		rows, err := s.Ledger.Attendance().ListInRange(ctx, id, from, to)
		if err != nil {
			return nil, s.storeFailure("list attendance", err, logrus.Fields{"user_id": id})
		}
		series := AttendanceSeries{UserID: id, Timestamps: make([]time.Time, 0, len(rows))}
		for _, r := range rows {
			series.Timestamps = append(series.Timestamps, r.Timestamp)
		}
		out = append(out, series)
	}
	return out, nil
}

// TemplateLookup is the result of a template fetch. Templates follow request
// order; Missing lists requested users with no enrolled template.
type TemplateLookup struct {
	Templates []entity.Template
	Missing   []string
}

// Templates returns the latest template of each requested user. Asking for a
// single user that has none is TemplateNotFound.
func (s *Service) Templates(ctx context.Context, userIDs []string) (TemplateLookup, error) {
	ids := uniqueNonEmpty(userIDs)
	if len(ids) == 0 {
		return TemplateLookup{}, ledgererr.New(ledgererr.MissingUserIDs, "user_id or user_ids is required")
	}
	latest, err := s.Ledger.Templates().LatestByUserIDs(ctx, ids)
	if err != nil {
		return TemplateLookup{}, s.storeFailure("fetch templates", err, logrus.Fields{"user_ids": ids})
	}

	out := TemplateLookup{Templates: make([]entity.Template, 0, len(ids)), Missing: []string{}}
	for _, id := range ids {
		t, ok := latest[id]
		if !ok {
			out.Missing = append(out.Missing, id)
			continue
		}
		out.Templates = append(out.Templates, t)
	}
	if len(ids) == 1 && len(out.Missing) == 1 {
		return TemplateLookup{}, ledgererr.Newf(ledgererr.TemplateNotFound, "no template enrolled for user %s", ids[0]).
			With("user_id", ids[0])
	}
	return out, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.Ledger.Ping(ctx)
}

func userNotFound(userID string) *ledgererr.Error {
	return ledgererr.Newf(ledgererr.UserNotFound, "user %s not found", userID).With("user_id", userID)
}

// storeFailure logs err and hides it behind an Internal error.
func (s *Service) storeFailure(op string, err error, fields logrus.Fields) error {
	storeFailures.Add(1)
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).WithField("op", op).Error("ledger store failure")
	}
	return ledgererr.Wrap(ledgererr.Internal, op+" failed", err)
}

// publish is best effort; the committed ledger row stays authoritative.
func (s *Service) publish(ctx context.Context, ev event.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, ev); err != nil {
		eventsFailed.Add(1)
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"event_id": ev.ID, "type": ev.Type}).Warn("publish ledger event failed")
		}
		return
	}
	eventsPublished.Add(1)
}

func uniqueNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
