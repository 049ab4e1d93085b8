package postgres

import (
	"context"
	"database/sql"
	"time"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
)

// RenderJobPostgres is a PostgreSQL implementation of repository.RenderJobRepository.
type RenderJobPostgres struct {
	db *sql.DB
}

// NewRenderJobPostgres creates a new RenderJobPostgres repository.
func NewRenderJobPostgres(db *sql.DB) *RenderJobPostgres {
	return &RenderJobPostgres{db: db}
}

var _ repository.RenderJobRepository = (*RenderJobPostgres)(nil)

const renderJobColumns = `id, report_id, status, fps, duration_sec, width, height, fade_ms, all_snitches, tiles, video_key, error, created_at, started_at, finished_at`

// Create inserts a new render job row and returns the stored record.
func (r *RenderJobPostgres) Create(ctx context.Context, job *model.RenderJob) (*model.RenderJob, error) {
	const q = `
		INSERT INTO render_jobs (id, report_id, status, fps, duration_sec, width, height, fade_ms, all_snitches, tiles, video_key, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + renderJobColumns
	row := r.db.QueryRowContext(ctx, q,
		job.ID,
		job.ReportID,
		job.Status,
		job.Options.FPS,
		job.Options.DurationSec,
		job.Options.Width,
		job.Options.Height,
		job.Options.FadeMS,
		job.Options.AllSnitches,
		job.Options.Tiles,
		job.VideoKey,
		job.Error,
		job.CreatedAt,
	)
	var out model.RenderJob
	if err := scanRenderJob(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single render job by its ID.
func (r *RenderJobPostgres) FindByID(ctx context.Context, id string) (*model.RenderJob, error) {
	const q = `SELECT ` + renderJobColumns + ` FROM render_jobs WHERE id = $1`
	var job model.RenderJob
	if err := scanRenderJob(r.db.QueryRowContext(ctx, q, id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns render jobs across all reports, newest first, plus the
// total count for pagination.
func (r *RenderJobPostgres) List(ctx context.Context, qp repository.PageQuery) (*repository.PageResult[model.RenderJob], error) {
	const qCount = `SELECT COUNT(*) FROM render_jobs`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + renderJobColumns + ` FROM render_jobs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	jobs, err := r.queryJobs(ctx, qList, qp.Limit, qp.Offset)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.RenderJob]{Items: jobs, Total: total}, nil
}

// ListByReport returns a report's render jobs, newest first.
func (r *RenderJobPostgres) ListByReport(ctx context.Context, reportID string) ([]model.RenderJob, error) {
	const q = `SELECT ` + renderJobColumns + ` FROM render_jobs WHERE report_id = $1 ORDER BY created_at DESC, id DESC`
	return r.queryJobs(ctx, q, reportID)
}

// ListByStatus returns jobs in the given status, oldest first.
func (r *RenderJobPostgres) ListByStatus(ctx context.Context, status model.RenderStatus) ([]model.RenderJob, error) {
	const q = `SELECT ` + renderJobColumns + ` FROM render_jobs WHERE status = $1 ORDER BY created_at, id`
	return r.queryJobs(ctx, q, status)
}

// Update writes a job's mutable columns.
func (r *RenderJobPostgres) Update(ctx context.Context, job *model.RenderJob) error {
	const q = `
		UPDATE render_jobs
		SET status = $2, video_key = $3, error = $4, started_at = $5, finished_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q,
		job.ID,
		job.Status,
		job.VideoKey,
		job.Error,
		nullTime(job.StartedAt),
		nullTime(job.FinishedAt),
	)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func (r *RenderJobPostgres) queryJobs(ctx context.Context, q string, args ...any) ([]model.RenderJob, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]model.RenderJob, 0)
	for rows.Next() {
		var job model.RenderJob
		if err := scanRenderJob(rows, &job); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func scanRenderJob(row rowScanner, job *model.RenderJob) error {
	var started, finished sql.NullTime
	if err := row.Scan(
		&job.ID,
		&job.ReportID,
		&job.Status,
		&job.Options.FPS,
		&job.Options.DurationSec,
		&job.Options.Width,
		&job.Options.Height,
		&job.Options.FadeMS,
		&job.Options.AllSnitches,
		&job.Options.Tiles,
		&job.VideoKey,
		&job.Error,
		&job.CreatedAt,
		&started,
		&finished,
	); err != nil {
		return err
	}
	if started.Valid {
		job.StartedAt = &started.Time
	}
	if finished.Valid {
		job.FinishedAt = &finished.Time
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
