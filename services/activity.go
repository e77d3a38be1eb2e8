package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/repository"
)

// ActivityRecorder appends audit entries stamped with the current time.
type ActivityRecorder struct {
	store repository.ActivityStore
	now   func() time.Time
}

func NewActivityRecorder(store repository.ActivityStore) *ActivityRecorder {
	return &ActivityRecorder{store: store, now: time.Now}
}

// Record appends one entry. Entries are never updated or removed.
func (r *ActivityRecorder) Record(ctx context.Context, action models.ActivityAction, uid, target string) error {
	return r.store.Append(ctx, models.ActivityLog{
		ID:          uuid.NewString(),
		Action:      action,
		PerformedBy: uid,
		TargetID:    target,
		Timestamp:   r.now().UnixMilli(),
	})
}

// Recent returns up to limit entries, newest first.
func (r *ActivityRecorder) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return r.store.Recent(ctx, limit)
}
