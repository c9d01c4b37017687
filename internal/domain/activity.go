package domain

import (
	"context"
	"time"
)

const (
	ActionViewCareer   = "view_career"
	ActionSaveCareer   = "save_career"
	ActionUnsaveCareer = "unsave_career"
)

// ActivityLog is an immutable audit record.
type ActivityLog struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	Action      string                 `json:"action"`
	SubjectType string                 `json:"subjectType"`
	SubjectID   string                 `json:"subjectId"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

type ActivityLogRepository interface {
	Append(ctx context.Context, entry *ActivityLog) error
}

// ActivityPublisher forwards activity to downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}
