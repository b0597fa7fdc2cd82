package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
)

// Store-level failures. Implementations wrap them so callers can use errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)

// UserRepository defines user persistence. UserID is unique.
type UserRepository interface {
	// Create inserts u and fills ID and CreatedAt. A taken UserID yields ErrDuplicate.
	Create(ctx context.Context, u *entity.User) error
	Exists(ctx context.Context, userID string) (bool, error)
	// ExistingIDs returns the subset of userIDs that exist.
	ExistingIDs(ctx context.Context, userIDs []string) (map[string]bool, error)
	// ListByTags returns users whose tag set contains every tag in tags, ordered by creation.
	ListByTags(ctx context.Context, tags []string) ([]entity.User, error)
	// List returns every user ordered by creation.
	List(ctx context.Context) ([]entity.User, error)
}

// TemplateRepository defines template persistence. Several templates per user are allowed.
type TemplateRepository interface {
	// Create inserts t and fills TemplateID and CreatedAt. An unknown UserID yields ErrForeignKey.
	Create(ctx context.Context, t *entity.Template) error
	// LatestByUserIDs returns the highest TemplateID per user; users without one are absent.
	LatestByUserIDs(ctx context.Context, userIDs []string) (map[string]entity.Template, error)
}

// AttendanceRepository defines attendance persistence. Rows are append-only.
type AttendanceRepository interface {
	// Create inserts a and fills AttendanceID. An unknown UserID yields ErrForeignKey.
	Create(ctx context.Context, a *entity.Attendance) error
	// ListInRange returns rows with start <= Timestamp <= end in ascending time order.
	ListInRange(ctx context.Context, userID string, start, end time.Time) ([]entity.Attendance, error)
}

// DeviceRepository defines the device registry.
type DeviceRepository interface {
	Register(ctx context.Context, d *entity.Device) error
	GetByID(ctx context.Context, deviceID string) (*entity.Device, error)
}

// Ledger is the store-access capability handed to the application layer.
type Ledger interface {
	Users() UserRepository
	Templates() TemplateRepository
	Attendance() AttendanceRepository
	Devices() DeviceRepository

	// InTx runs fn inside one serializable transaction. Repositories obtained from
	// the tx argument are bound to it; everything fn wrote is discarded if it returns
	// an error. Calling InTx on a tx-bound Ledger runs fn in the same transaction.
	InTx(ctx context.Context, fn func(tx Ledger) error) error

	Ping(ctx context.Context) error
}
