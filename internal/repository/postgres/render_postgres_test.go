package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
)

var renderJobTestColumns = []string{"id", "report_id", "status", "fps", "duration_sec", "width", "height", "fade_ms", "all_snitches", "tiles", "video_key", "error", "created_at", "started_at", "finished_at"}

func testRenderJob(now time.Time) *model.RenderJob {
	return &model.RenderJob{
		ID:       "job-uuid",
		ReportID: "report-uuid",
		Status:   model.RenderQueued,
		Options: model.RenderOptions{
			FPS:         30,
			DurationSec: 10,
			Width:       800,
			Height:      800,
			FadeMS:      300000,
		},
		CreatedAt: now,
	}
}

func renderJobRow(job *model.RenderJob) *sqlmock.Rows {
	return sqlmock.NewRows(renderJobTestColumns).
		AddRow(job.ID, job.ReportID, string(job.Status),
			job.Options.FPS, job.Options.DurationSec, job.Options.Width, job.Options.Height, job.Options.FadeMS, job.Options.AllSnitches, job.Options.Tiles,
			job.VideoKey, job.Error, job.CreatedAt, nil, nil)
}

func TestRenderJobPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRenderJobPostgres(db)
	ctx := context.Background()

	job := testRenderJob(time.Now().UTC())
	mock.ExpectQuery("INSERT INTO render_jobs").
		WithArgs(job.ID, job.ReportID, job.Status,
			job.Options.FPS, job.Options.DurationSec, job.Options.Width, job.Options.Height, job.Options.FadeMS, job.Options.AllSnitches, job.Options.Tiles,
			job.VideoKey, job.Error, job.CreatedAt).
		WillReturnRows(renderJobRow(job))

	result, err := repo.Create(ctx, job)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, job.ID, result.ID)
	assert.Equal(t, model.RenderQueued, result.Status)
	assert.Equal(t, 30, result.Options.FPS)
	assert.Nil(t, result.StartedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderJobPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRenderJobPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(renderJobTestColumns).
			AddRow("job-uuid", "report-uuid", "completed", 30, 10, 800, 800, 300000, false, true,
				"renders/job-uuid.mp4", "", now, now, now.Add(time.Minute))

		mock.ExpectQuery("SELECT (.+) FROM render_jobs WHERE id = ?").
			WithArgs("job-uuid").
			WillReturnRows(rows)

		job, err := repo.FindByID(ctx, "job-uuid")

		assert.NoError(t, err)
		assert.NotNil(t, job)
		assert.Equal(t, model.RenderCompleted, job.Status)
		assert.Equal(t, "renders/job-uuid.mp4", job.VideoKey)
		assert.True(t, job.Options.Tiles)
		if assert.NotNil(t, job.StartedAt) {
			assert.Equal(t, now, *job.StartedAt)
		}
		assert.NotNil(t, job.FinishedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM render_jobs WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		job, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, job)
	})
}

func TestRenderJobPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRenderJobPostgres(db)
	ctx := context.Background()

	job := testRenderJob(time.Now().UTC())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM render_jobs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("SELECT (.+) FROM render_jobs ORDER BY created_at DESC").
		WithArgs(10, 0).
		WillReturnRows(renderJobRow(job))

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 7, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderJobPostgres_ListByReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRenderJobPostgres(db)
	ctx := context.Background()

	job := testRenderJob(time.Now().UTC())
	mock.ExpectQuery("SELECT (.+) FROM render_jobs WHERE report_id = ?").
		WithArgs("report-uuid").
		WillReturnRows(renderJobRow(job))

	jobs, err := repo.ListByReport(ctx, "report-uuid")

	assert.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderJobPostgres_ListByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRenderJobPostgres(db)
	ctx := context.Background()

	job := testRenderJob(time.Now().UTC())
	mock.ExpectQuery("SELECT (.+) FROM render_jobs WHERE status = ?").
		WithArgs(model.RenderQueued).
		WillReturnRows(renderJobRow(job))

	jobs, err := repo.ListByStatus(ctx, model.RenderQueued)

	assert.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, model.RenderQueued, jobs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenderJobPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRenderJobPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	job := testRenderJob(now)
	job.Status = model.RenderCompleted
	job.VideoKey = "renders/job-uuid.mp4"
	job.StartedAt = &now
	finished := now.Add(time.Minute)
	job.FinishedAt = &finished

	mock.ExpectExec("UPDATE render_jobs").
		WithArgs(job.ID, job.Status, job.VideoKey, "", now, finished).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Update(ctx, job)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
