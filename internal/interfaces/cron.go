// Package interfaces contains the core contracts shared across crondeck packages.
// Concrete implementations live in their respective packages; this package is the
// single canonical source of truth for every interface definition.
package interfaces

import (
	"context"

	"github.com/crystaldolphin/crondeck/internal/schema"
)

// StoreResult is the envelope every job-store call answers with.
// Success=false is a rejection; Message carries the store's reason, if any.
type StoreResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResult answers CronStore.List.
type ListResult struct {
	StoreResult
	Jobs []schema.Job `json:"jobs"`
}

// JobResult answers CronStore.Add and CronStore.Update.
type JobResult struct {
	StoreResult
	Job *schema.Job `json:"job,omitempty"`
}

// JobSpec is the job definition sent on add and update.
// ScheduleValue depends on ScheduleType: the 5-field expression for "cron",
// decimal seconds for "every", a local datetime for "at". TZ "" means unset.
type JobSpec struct {
	Name          string              `json:"name"`
	Message       string              `json:"message"`
	ScheduleType  schema.ScheduleKind `json:"scheduleType"`
	ScheduleValue string              `json:"scheduleValue"`
	TZ            string              `json:"tz,omitempty"`
}

// CronStore is the external service of record for scheduled jobs.
// A returned error is a transport failure; a rejection comes back as
// Success=false with a nil error.
type CronStore interface {
	List(ctx context.Context) (ListResult, error)
	Add(ctx context.Context, spec JobSpec) (JobResult, error)
	Update(ctx context.Context, jobID string, spec JobSpec, enabled bool) (JobResult, error)
	Remove(ctx context.Context, jobID string) (StoreResult, error)
	// Enable takes the job's current enabled state as disable; the store flips it.
	Enable(ctx context.Context, jobID string, disable bool) (StoreResult, error)
	Run(ctx context.Context, jobID string) (StoreResult, error)
}
