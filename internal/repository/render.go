package repository

import (
	"context"

	"snitchvis/internal/model"
)

// RenderJobRepository defines data access for video render jobs.
type RenderJobRepository interface {
	// Create inserts a new render job record.
	Create(ctx context.Context, job *model.RenderJob) (*model.RenderJob, error)

	// FindByID returns a render job by its ID.
	FindByID(ctx context.Context, id string) (*model.RenderJob, error)

	// List returns render jobs across all reports, newest first, with a
	// total count.
	List(ctx context.Context, q PageQuery) (*PageResult[model.RenderJob], error)

	// ListByReport returns a report's render jobs, newest first.
	ListByReport(ctx context.Context, reportID string) ([]model.RenderJob, error)

	// ListByStatus returns jobs in the given status, oldest first, so
	// queued work can be picked up again after a restart.
	ListByStatus(ctx context.Context, status model.RenderStatus) ([]model.RenderJob, error)

	// Update writes a job's mutable columns: status, video key, error
	// and the started/finished timestamps.
	Update(ctx context.Context, job *model.RenderJob) error
}
