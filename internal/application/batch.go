package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/event"
	"github.com/oksasatya/attendance-ledger/internal/domain/ledgererr"
	repo "github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

// MarkAttendance applies a (user_id, timestamp) batch all-or-nothing.
//
// Every pair is checked in input order before any row is written: the user must
// exist, then the timestamp must parse. The first failure is returned and the
// transaction is rolled back, so a rejected batch persists nothing. Accepted rows
// come back in input order; repeated user ids produce repeated rows.
func (s *Service) MarkAttendance(ctx context.Context, userIDs, timestamps []string) ([]entity.Attendance, error) {
	if len(userIDs) != len(timestamps) {
		return nil, ledgererr.Newf(ledgererr.LengthMismatch,
			"user_ids has %d entries but timestamps has %d", len(userIDs), len(timestamps)).
			With("user_ids", len(userIDs)).
			With("timestamps", len(timestamps))
	}
	if len(userIDs) == 0 {
		return []entity.Attendance{}, nil
	}

	var records []entity.Attendance
	err := s.Ledger.InTx(ctx, func(tx repo.Ledger) error {
		known, err := tx.Users().ExistingIDs(ctx, uniqueNonEmpty(userIDs))
		if err != nil {
			return err
		}

		batch := make([]entity.Attendance, len(userIDs))
		for i, id := range userIDs {
			if !known[id] {
				return userNotFound(id).With("index", i)
			}
			ts, perr := entity.ParseTimestamp(timestamps[i])
			if perr != nil {
				return ledgererr.Wrap(ledgererr.TimeFormatError, "timestamps must be YYYY-MM-DDTHH:MM:SSZ", perr).
					With("index", i).
					With("timestamp", timestamps[i])
			}
			batch[i] = entity.Attendance{UserID: id, Timestamp: ts}
		}

		for i := range batch {
			if err := tx.Attendance().Create(ctx, &batch[i]); err != nil {
				if errors.Is(err, repo.ErrForeignKey) {
					return userNotFound(batch[i].UserID).With("index", i)
				}
				return err
			}
		}
		records = batch
		return nil
	})
	if err != nil {
		var lerr *ledgererr.Error
		if errors.As(err, &lerr) {
			batchesRejected.Add(1)
			return nil, lerr
		}
		return nil, s.storeFailure("mark attendance", err, logrus.Fields{"batch_size": len(userIDs)})
	}

	attendanceMarked.Add(int64(len(records)))
	s.publish(ctx, event.NewAttendanceMarked(records, s.now()))
	return records, nil
}
