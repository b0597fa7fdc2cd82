package postgres

import (
	"context"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

type TemplateRepository struct {
	db DBTX
}

func NewTemplateRepository(db DBTX) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, t *entity.Template) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO templates (user_id, template_data)
		VALUES ($1, $2)
		RETURNING template_id, created_at
	`, t.UserID, t.TemplateData)

	if err := row.Scan(&t.TemplateID, &t.CreatedAt); err != nil {
		return mapErr(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return nil
}

func (r *TemplateRepository) LatestByUserIDs(ctx context.Context, userIDs []string) (map[string]entity.Template, error) {
	out := make(map[string]entity.Template, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (user_id) template_id, user_id, template_data, created_at
		FROM templates
		WHERE user_id = ANY($1)
		ORDER BY user_id, template_id DESC
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t entity.Template
		if err := rows.Scan(&t.TemplateID, &t.UserID, &t.TemplateData, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out[t.UserID] = t
	}
	return out, rows.Err()
}

var _ repository.TemplateRepository = (*TemplateRepository)(nil)
