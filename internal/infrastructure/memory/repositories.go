package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

type userRepo struct{ l *Ledger }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	return r.l.write(func(st *state) error {
		if _, ok := st.users[u.UserID]; ok {
			return fmt.Errorf("%w: users_user_id_key", repository.ErrDuplicate)
		}
		st.nextUserID++
		u.ID = st.nextUserID
		u.CreatedAt = r.l.now()
		if u.Tags == nil {
			u.Tags = []string{}
		}
		stored := *u
		stored.Tags = append([]string{}, u.Tags...)
		st.users[u.UserID] = stored
		st.userOrder = append(st.userOrder, u.UserID)
		return nil
	})
}

func (r userRepo) Exists(_ context.Context, userID string) (bool, error) {
	var ok bool
	r.l.read(func(st *state) {
		_, ok = st.users[userID]
	})
	return ok, nil
}

func (r userRepo) ExistingIDs(_ context.Context, userIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(userIDs))
	r.l.read(func(st *state) {
		for _, id := range userIDs {
			if _, ok := st.users[id]; ok {
				out[id] = true
			}
		}
	})
	return out, nil
}

func (r userRepo) ListByTags(_ context.Context, tags []string) ([]entity.User, error) {
	var out []entity.User
	r.l.read(func(st *state) {
		for _, id := range st.userOrder {
			u := st.users[id]
			if !u.HasAllTags(tags) {
				continue
			}
			u.Tags = append([]string{}, u.Tags...)
			out = append(out, u)
		}
	})
	return out, nil
}

func (r userRepo) List(ctx context.Context) ([]entity.User, error) {
	return r.ListByTags(ctx, nil)
}

type templateRepo struct{ l *Ledger }

func (r templateRepo) Create(_ context.Context, t *entity.Template) error {
	return r.l.write(func(st *state) error {
		if _, ok := st.users[t.UserID]; !ok {
			return fmt.Errorf("%w: templates_user_id_fkey", repository.ErrForeignKey)
		}
		st.nextTemplateID++
		t.TemplateID = st.nextTemplateID
		t.CreatedAt = r.l.now()
		st.templates = append(st.templates, *t)
		return nil
	})
}

func (r templateRepo) LatestByUserIDs(_ context.Context, userIDs []string) (map[string]entity.Template, error) {
	want := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		want[id] = struct{}{}
	}
	out := make(map[string]entity.Template, len(userIDs))
	r.l.read(func(st *state) {
		for _, t := range st.templates {
			if _, ok := want[t.UserID]; !ok {
				continue
			}
			if cur, ok := out[t.UserID]; !ok || t.TemplateID > cur.TemplateID {
				out[t.UserID] = t
			}
		}
	})
	return out, nil
}

type attendanceRepo struct{ l *Ledger }

func (r attendanceRepo) Create(_ context.Context, a *entity.Attendance) error {
	return r.l.write(func(st *state) error {
		if _, ok := st.users[a.UserID]; !ok {
			return fmt.Errorf("%w: attendance_user_id_fkey", repository.ErrForeignKey)
		}
		st.nextAttendanceID++
		a.AttendanceID = st.nextAttendanceID
		a.Timestamp = a.Timestamp.UTC()
		st.attendance = append(st.attendance, *a)
		return nil
	})
}

func (r attendanceRepo) ListInRange(_ context.Context, userID string, start, end time.Time) ([]entity.Attendance, error) {
	var out []entity.Attendance
	r.l.read(func(st *state) {
		for _, a := range st.attendance {
			if a.UserID != userID || a.Timestamp.Before(start) || a.Timestamp.After(end) {
				continue
			}
			out = append(out, a)
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].AttendanceID < out[j].AttendanceID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

type deviceRepo struct{ l *Ledger }

func (r deviceRepo) Register(_ context.Context, d *entity.Device) error {
	return r.l.write(func(st *state) error {
		if _, ok := st.devices[d.DeviceID]; ok {
			return fmt.Errorf("%w: devices_pkey", repository.ErrDuplicate)
		}
		d.CreatedAt = r.l.now()
		st.devices[d.DeviceID] = *d
		return nil
	})
}

func (r deviceRepo) GetByID(_ context.Context, deviceID string) (*entity.Device, error) {
	var (
		d  entity.Device
		ok bool
	)
	r.l.read(func(st *state) {
		d, ok = st.devices[deviceID]
	})
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}
