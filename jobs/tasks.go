package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsInvalidate bumps an organization's report cache version.
	TaskReportsInvalidate = "reports:invalidate"
	// TaskGLIntegrity runs the scheduled general ledger integrity check.
	TaskGLIntegrity = "gl:integrity"
)

// ReportsInvalidatePayload scopes a cache invalidation to one organization.
type ReportsInvalidatePayload struct {
	OrgID int64 `json:"org_id"`
}

// NewReportsInvalidateTask constructs the cache invalidation task.
func NewReportsInvalidateTask(payload ReportsInvalidatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsInvalidate, data), nil
}

// NewGLIntegrityTask constructs the integrity check task.
func NewGLIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskGLIntegrity, nil)
}

// ReportCache is the part of the report cache the worker needs.
type ReportCache interface {
	Bump(ctx context.Context, orgID int64) error
}

// HandleReportsInvalidate returns the handler for TaskReportsInvalidate.
func HandleReportsInvalidate(cache ReportCache) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportsInvalidatePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return cache.Bump(ctx, payload.OrgID)
	}
}
