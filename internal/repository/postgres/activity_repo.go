package postgres

import (
	"context"

	"career-catalog-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type activityRepo struct {
	db *pgxpool.Pool
}

func NewActivityLogRepository(db *pgxpool.Pool) domain.ActivityLogRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Append(ctx context.Context, entry *domain.ActivityLog) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := jsonbArg(metadata)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO activity_logs (id, user_id, action, subject_type, subject_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Action, entry.SubjectType, entry.SubjectID, raw, entry.CreatedAt)
	return translate(err)
}
