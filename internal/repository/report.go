package repository

import (
	"context"

	"snitchvis/internal/model"
)

// EventFilter narrows ListEvents. Zero values mean no filtering on
// that dimension; FromMS/ToMS bound t_ms inclusively and ToMS <= 0
// leaves the upper bound open.
type EventFilter struct {
	Username string
	FromMS   int64
	ToMS     int64
}

// ReportRepository defines data access for snitch reports and their
// event and snitch rows using SQL queries only.
// No business logic here — strictly persistence operations.
type ReportRepository interface {
	// Create inserts a new report record.
	// The caller provides required fields (ID, CreatedAt and the
	// aggregate counts) according to the database schema.
	Create(ctx context.Context, rep *model.Report) (*model.Report, error)

	// FindByID returns a report by its ID.
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// List returns a paginated list of reports and total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Report], error)

	// Delete removes a report by ID. Event and snitch rows go with it
	// via ON DELETE CASCADE. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error

	// InsertEvents stores a report's parsed events in timeline order.
	InsertEvents(ctx context.Context, reportID string, events []model.Event) error

	// ListEvents returns a report's events ordered by t_ms, optionally
	// filtered.
	ListEvents(ctx context.Context, reportID string, f EventFilter) ([]model.Event, error)

	// InsertSnitches stores a report's snitches in read order.
	InsertSnitches(ctx context.Context, reportID string, snitches []model.Snitch) error

	// ListSnitches returns a report's snitches in insert order.
	ListSnitches(ctx context.Context, reportID string) ([]model.Snitch, error)
}
