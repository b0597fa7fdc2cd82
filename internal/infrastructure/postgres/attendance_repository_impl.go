package postgres

import (
	"context"
	"time"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

type AttendanceRepository struct {
	db DBTX
}

func NewAttendanceRepository(db DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) Create(ctx context.Context, a *entity.Attendance) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO attendance (user_id, "timestamp")
		VALUES ($1, $2)
		RETURNING attendance_id
	`, a.UserID, a.Timestamp.UTC())

	return mapErr(row.Scan(&a.AttendanceID))
}

func (r *AttendanceRepository) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]entity.Attendance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT attendance_id, user_id, "timestamp"
		FROM attendance
		WHERE user_id = $1 AND "timestamp" >= $2 AND "timestamp" <= $3
		ORDER BY "timestamp", attendance_id
	`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Attendance
	for rows.Next() {
		var a entity.Attendance
		if err := rows.Scan(&a.AttendanceID, &a.UserID, &a.Timestamp); err != nil {
			return nil, err
		}
		a.Timestamp = a.Timestamp.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ repository.AttendanceRepository = (*AttendanceRepository)(nil)
