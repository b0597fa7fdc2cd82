package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (user_id, name, tags)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, u.UserID, u.Name, u.Tags)

	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return mapErr(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return nil
}

func (r *UserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&ok)
	return ok, err
}

func (r *UserRepository) ExistingIDs(ctx context.Context, userIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT user_id FROM users WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ListByTags matches with array containment (tags @> query), so a user must carry
// every requested tag.
func (r *UserRepository) ListByTags(ctx context.Context, tags []string) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, tags, created_at
		FROM users
		WHERE tags @> $1::text[]
		ORDER BY id
	`, tags)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func (r *UserRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, tags, created_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]entity.User, error) {
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.UserID, &u.Name, &u.Tags, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Tags == nil {
			u.Tags = []string{}
		}
		u.CreatedAt = u.CreatedAt.UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
