package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
)

// insertChunk caps rows per multi-row INSERT so a large report stays
// well under PostgreSQL's 65535 bind parameter limit.
const insertChunk = 500

// placeholders renders "($1, $2, ...), ($n+1, ...)" groups for a
// multi-row insert of rows x cols parameters.
func placeholders(rows, cols int) string {
	var sb strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

// Create inserts a new report row and returns the stored record.
func (r *ReportPostgres) Create(ctx context.Context, rep *model.Report) (*model.Report, error) {
	const q = `
		INSERT INTO snitch_reports (id, name, events_key, snitchdb_key, event_count, user_count, snitch_count, start_at, end_at, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, name, events_key, snitchdb_key, event_count, user_count, snitch_count, start_at, end_at, duration_ms, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		rep.ID,
		rep.Name,
		rep.EventsKey,
		rep.SnitchDBKey,
		rep.EventCount,
		rep.UserCount,
		rep.SnitchCount,
		rep.StartAt,
		rep.EndAt,
		rep.DurationMS,
		rep.CreatedAt,
	)
	var out model.Report
	if err := scanReport(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single report by its ID.
func (r *ReportPostgres) FindByID(ctx context.Context, id string) (*model.Report, error) {
	const q = `
		SELECT id, name, events_key, snitchdb_key, event_count, user_count, snitch_count, start_at, end_at, duration_ms, created_at
		FROM snitch_reports
		WHERE id = $1
	`
	var rep model.Report
	if err := scanReport(r.db.QueryRowContext(ctx, q, id), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner, rep *model.Report) error {
	return row.Scan(
		&rep.ID,
		&rep.Name,
		&rep.EventsKey,
		&rep.SnitchDBKey,
		&rep.EventCount,
		&rep.UserCount,
		&rep.SnitchCount,
		&rep.StartAt,
		&rep.EndAt,
		&rep.DurationMS,
		&rep.CreatedAt,
	)
}

// List returns reports using LIMIT/OFFSET pagination and a total count.
func (r *ReportPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Report], error) {
	const qCount = `SELECT COUNT(*) FROM snitch_reports`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, name, events_key, snitchdb_key, event_count, user_count, snitch_count, start_at, end_at, duration_ms, created_at
		FROM snitch_reports
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Report, 0)
	for rows.Next() {
		var rep model.Report
		if err := scanReport(rows, &rep); err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Report]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a report by ID; snitch_events and snitches rows
// cascade. It does not return an error if the row does not exist.
func (r *ReportPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM snitch_reports WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

const eventCols = 10

// InsertEvents stores events in chunks of multi-row inserts.
func (r *ReportPostgres) InsertEvents(ctx context.Context, reportID string, events []model.Event) error {
	for start := 0; start < len(events); start += insertChunk {
		end := start + insertChunk
		if end > len(events) {
			end = len(events)
		}
		chunk := events[start:end]

		q := `INSERT INTO snitch_events (report_id, kind, username, snitch_name, group_name, x, y, z, t_ms, occurred_at) VALUES ` +
			placeholders(len(chunk), eventCols)
		args := make([]any, 0, len(chunk)*eventCols)
		for _, ev := range chunk {
			args = append(args, reportID, ev.Kind, ev.Username, ev.SnitchName, ev.Group, ev.X, ev.Y, ev.Z, ev.T, ev.OccurredAt)
		}
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// ListEvents returns a report's events ordered by t_ms. The filter's
// zero values are skipped when building the WHERE clause.
func (r *ReportPostgres) ListEvents(ctx context.Context, reportID string, f repository.EventFilter) ([]model.Event, error) {
	q := `
		SELECT kind, username, snitch_name, group_name, x, y, z, t_ms, occurred_at
		FROM snitch_events
		WHERE report_id = $1`
	args := []any{reportID}

	if f.Username != "" {
		args = append(args, f.Username)
		q += fmt.Sprintf(" AND username = $%d", len(args))
	}
	if f.FromMS > 0 {
		args = append(args, f.FromMS)
		q += fmt.Sprintf(" AND t_ms >= $%d", len(args))
	}
	if f.ToMS > 0 {
		args = append(args, f.ToMS)
		q += fmt.Sprintf(" AND t_ms <= $%d", len(args))
	}
	q += " ORDER BY t_ms, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(
			&ev.Kind,
			&ev.Username,
			&ev.SnitchName,
			&ev.Group,
			&ev.X,
			&ev.Y,
			&ev.Z,
			&ev.T,
			&ev.OccurredAt,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

const snitchCols = 12

// InsertSnitches stores snitches in chunks of multi-row inserts.
func (r *ReportPostgres) InsertSnitches(ctx context.Context, reportID string, snitches []model.Snitch) error {
	for start := 0; start < len(snitches); start += insertChunk {
		end := start + insertChunk
		if end > len(snitches) {
			end = len(snitches)
		}
		chunk := snitches[start:end]

		q := `INSERT INTO snitches (report_id, world, x, y, z, group_name, type, name, dormant_ts, cull_ts, created_ts, synthetic) VALUES ` +
			placeholders(len(chunk), snitchCols)
		args := make([]any, 0, len(chunk)*snitchCols)
		for _, s := range chunk {
			args = append(args, reportID, s.World, s.X, s.Y, s.Z, s.GroupName, s.Type, s.Name, s.DormantTS, s.CullTS, s.CreatedTS, s.Synthetic)
		}
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// ListSnitches returns a report's snitches in insert order.
func (r *ReportPostgres) ListSnitches(ctx context.Context, reportID string) ([]model.Snitch, error) {
	const q = `
		SELECT world, x, y, z, group_name, type, name, dormant_ts, cull_ts, created_ts, synthetic
		FROM snitches
		WHERE report_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, q, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snitches := make([]model.Snitch, 0)
	for rows.Next() {
		var s model.Snitch
		if err := rows.Scan(
			&s.World,
			&s.X,
			&s.Y,
			&s.Z,
			&s.GroupName,
			&s.Type,
			&s.Name,
			&s.DormantTS,
			&s.CullTS,
			&s.CreatedTS,
			&s.Synthetic,
		); err != nil {
			return nil, err
		}
		snitches = append(snitches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snitches, nil
}
