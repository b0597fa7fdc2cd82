// Package memory is a process-local repository.Ledger. It backs tests and
// STORE_DRIVER=memory; contents are lost on exit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

type state struct {
	users      map[string]entity.User
	userOrder  []string
	templates  []entity.Template
	attendance []entity.Attendance
	devices    map[string]entity.Device

	nextUserID       int64
	nextTemplateID   int64
	nextAttendanceID int64
}

func newState() *state {
	return &state{
		users:   make(map[string]entity.User),
		devices: make(map[string]entity.Device),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:            make(map[string]entity.User, len(s.users)),
		userOrder:        append([]string(nil), s.userOrder...),
		templates:        append([]entity.Template(nil), s.templates...),
		attendance:       append([]entity.Attendance(nil), s.attendance...),
		devices:          make(map[string]entity.Device, len(s.devices)),
		nextUserID:       s.nextUserID,
		nextTemplateID:   s.nextTemplateID,
		nextAttendanceID: s.nextAttendanceID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.devices {
		c.devices[k] = v
	}
	return c
}

// Ledger keeps every table in maps guarded by one lock. A transaction holds the
// write lock for its whole duration and works on a copy that replaces the live
// state only on success.
type Ledger struct {
	mu *sync.RWMutex
	st *state
	tx bool

	// Now stamps CreatedAt columns. Defaults to time.Now.
	Now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{mu: &sync.RWMutex{}, st: newState(), Now: time.Now}
}

func (l *Ledger) read(fn func(st *state)) {
	if !l.tx {
		l.mu.RLock()
		defer l.mu.RUnlock()
	}
	fn(l.st)
}

func (l *Ledger) write(fn func(st *state) error) error {
	if !l.tx {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	return fn(l.st)
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

func (l *Ledger) Users() repository.UserRepository {
	return userRepo{l}
}

func (l *Ledger) Templates() repository.TemplateRepository {
	return templateRepo{l}
}

func (l *Ledger) Attendance() repository.AttendanceRepository {
	return attendanceRepo{l}
}

func (l *Ledger) Devices() repository.DeviceRepository {
	return deviceRepo{l}
}

func (l *Ledger) InTx(ctx context.Context, fn func(tx repository.Ledger) error) error {
	if l.tx {
		return fn(l)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	txl := &Ledger{mu: l.mu, st: l.st.clone(), tx: true, Now: l.Now}
	if err := fn(txl); err != nil {
		return err
	}
	l.st = txl.st
	return nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return ctx.Err()
}

var _ repository.Ledger = (*Ledger)(nil)
