package usecase

import (
	"context"
	"time"

	"career-catalog-backend/internal/domain"
	"career-catalog-backend/pkg/logger"

	"github.com/google/uuid"
)

// activityRecorder appends audit records and fans them out to subscribers.
// Both steps are best-effort: failures are logged, never returned.
type activityRecorder struct {
	repo      domain.ActivityLogRepository
	publisher domain.ActivityPublisher
}

func newActivityRecorder(repo domain.ActivityLogRepository, publisher domain.ActivityPublisher) *activityRecorder {
	return &activityRecorder{repo: repo, publisher: publisher}
}

// record is a no-op for anonymous actors.
func (a *activityRecorder) record(ctx context.Context, userID, action, careerID string, metadata map[string]interface{}) {
	if a == nil || userID == "" {
		return
	}

	entry := &domain.ActivityLog{
		ID:          uuid.NewString(),
		UserID:      userID,
		Action:      action,
		SubjectType: "career",
		SubjectID:   careerID,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}

	if a.repo != nil {
		if err := a.repo.Append(ctx, entry); err != nil {
			logger.Log.Warn("activity log append failed",
				"action", action,
				"career_id", careerID,
				"error", err,
			)
			return
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, action, entry); err != nil {
			logger.Log.Warn("activity publish failed", "action", action, "career_id", careerID, "error", err)
		}
	}
}
