package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DBTX that can start transactions.
type Pool interface {
	DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Ledger implements repository.Ledger on PostgreSQL.
type Ledger struct {
	pool Pool // nil when bound to a transaction

	users      *UserRepository
	templates  *TemplateRepository
	attendance *AttendanceRepository
	devices    *DeviceRepository
}

func NewLedger(pool Pool) *Ledger {
	l := bind(pool)
	l.pool = pool
	return l
}

func bind(db DBTX) *Ledger {
	return &Ledger{
		users:      NewUserRepository(db),
		templates:  NewTemplateRepository(db),
		attendance: NewAttendanceRepository(db),
		devices:    NewDeviceRepository(db),
	}
}

func (l *Ledger) Users() repository.UserRepository {
	return l.users
}

func (l *Ledger) Templates() repository.TemplateRepository {
	return l.templates
}

func (l *Ledger) Attendance() repository.AttendanceRepository {
	return l.attendance
}

func (l *Ledger) Devices() repository.DeviceRepository {
	return l.devices
}

// serializable is the isolation used for every ledger transaction.
var serializable = pgx.TxOptions{IsoLevel: pgx.Serializable}

// InTx commits when fn returns nil and rolls back on error or panic; panics are rethrown.
func (l *Ledger) InTx(ctx context.Context, fn func(tx repository.Ledger) error) (err error) {
	if l.pool == nil {
		return fn(l)
	}
	tx, err := l.pool.BeginTx(ctx, serializable)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	return fn(bind(tx))
}

func (l *Ledger) Ping(ctx context.Context) error {
	if l.pool == nil {
		return nil
	}
	return l.pool.Ping(ctx)
}

// SQLSTATE codes the ledger translates.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrForeignKey, pgErr.ConstraintName)
		}
	}
	return err
}

var _ repository.Ledger = (*Ledger)(nil)
