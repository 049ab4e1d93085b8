package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
	"snitchvis/internal/snitchdb"
	"snitchvis/internal/snitchlog"
	"snitchvis/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrEventsRequired = errors.New("events file is required")
	ErrReportNotFound = errors.New("report not found")
)

// ReportListResult is the service-level DTO for paginated reports.
type ReportListResult struct {
	Items []model.Report `json:"data"`
	Total int            `json:"total"`
}

// IngestInput carries one report upload: the pasted or exported event
// log, and optionally the snitch database backing it.
type IngestInput struct {
	Name string
	// Events is the snitch event log text.
	Events io.Reader
	// SnitchDB is an optional sqlite snitch database; nil means
	// placeholder snitches are synthesized from the events alone.
	SnitchDB io.Reader
	// ReferenceAt anchors clock-only event times to a date; the zero
	// value means the upload time.
	ReferenceAt time.Time
}

// ReportService defines the use cases for handling snitch reports.
type ReportService interface {
	// Ingest parses the uploaded files, stores the originals in object
	// storage, saves the parsed rows to the DB, and rolls back storage
	// if the DB save fails.
	Ingest(ctx context.Context, in IngestInput) (*model.Report, error)

	// List returns reports using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ReportListResult, error)

	// Get returns a single report by its ID.
	Get(ctx context.Context, id string) (*model.Report, error)

	// Events returns a report's events, optionally filtered by user or
	// timeline window.
	Events(ctx context.Context, id string, f repository.EventFilter) ([]model.Event, error)

	// Users returns the players seen in a report's events, with their
	// assigned legend colors.
	Users(ctx context.Context, id string) ([]*model.User, error)

	// Delete removes a report with its rows, uploaded files and any
	// rendered videos.
	Delete(ctx context.Context, id string) error
}

// reportService is a concrete implementation of ReportService.
type reportService struct {
	store storage.Storage
	repo  repository.ReportRepository
	jobs  repository.RenderJobRepository
}

// NewReportService constructs a new ReportService.
func NewReportService(store storage.Storage, repo repository.ReportRepository, jobs repository.RenderJobRepository) ReportService {
	return &reportService{store: store, repo: repo, jobs: jobs}
}

func (s *reportService) Ingest(ctx context.Context, in IngestInput) (*model.Report, error) {
	if in.Events == nil {
		return nil, ErrEventsRequired
	}
	ref := in.ReferenceAt
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	// The raw log is kept verbatim in storage, so buffer it once and
	// parse from the copy.
	raw, err := io.ReadAll(in.Events)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	events, err := snitchlog.Parse(bytes.NewReader(raw), ref)
	if err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}

	snitches, dbPath, err := s.readSnitchDB(ctx, in.SnitchDB)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		defer os.Remove(dbPath)
	}
	snitches = append(snitches, snitchdb.Synthesize(snitches, events)...)

	id := uuid.New().String()
	eventsKey := "reports/" + id + "/events.log"
	if _, err := s.store.Put(ctx, eventsKey, bytes.NewReader(raw), storage.PutObjectOptions{
		Size:        int64(len(raw)),
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		return nil, fmt.Errorf("upload events to storage: %w", err)
	}

	var snitchDBKey string
	if dbPath != "" {
		snitchDBKey = "reports/" + id + "/snitches.db"
		if err := s.putFile(ctx, snitchDBKey, dbPath, "application/vnd.sqlite3"); err != nil {
			if delErr := s.store.Delete(ctx, eventsKey); delErr != nil {
				return nil, fmt.Errorf("upload snitch db to storage: %v; rollback delete failed: %v", err, delErr)
			}
			return nil, fmt.Errorf("upload snitch db to storage: %w", err)
		}
	}

	last := events[len(events)-1]
	rep := &model.Report{
		ID:          id,
		Name:        reportName(in.Name, events[0].OccurredAt),
		EventsKey:   eventsKey,
		SnitchDBKey: snitchDBKey,
		EventCount:  len(events),
		UserCount:   len(model.NewUsers(events)),
		SnitchCount: len(snitches),
		StartAt:     events[0].OccurredAt,
		EndAt:       last.OccurredAt,
		DurationMS:  last.T,
		CreatedAt:   time.Now().UTC(),
	}

	stored, err := s.repo.Create(ctx, rep)
	if err == nil {
		if err = s.repo.InsertEvents(ctx, id, events); err == nil {
			err = s.repo.InsertSnitches(ctx, id, snitches)
		}
		if err != nil {
			// The report row cascades the partially inserted rows.
			_ = s.repo.Delete(ctx, id)
		}
	}
	if err != nil {
		// Rollback: delete the uploaded objects from storage
		if delErr := s.deleteObjects(ctx, eventsKey, snitchDBKey); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// readSnitchDB copies the uploaded database to a temp file the sqlite
// driver can open and reads its live snitches. The temp path is
// returned so the original bytes can be stored afterwards.
func (s *reportService) readSnitchDB(ctx context.Context, r io.Reader) ([]model.Snitch, string, error) {
	if r == nil {
		return nil, "", nil
	}
	tmp, err := os.CreateTemp("", "snitchdb-*.db")
	if err != nil {
		return nil, "", fmt.Errorf("create temp snitch db: %w", err)
	}
	path := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("copy snitch db: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return nil, "", fmt.Errorf("close temp snitch db: %w", err)
	}

	snitches, err := snitchdb.ReadSnitches(ctx, path)
	if err != nil {
		os.Remove(path)
		return nil, "", fmt.Errorf("read snitch db: %w", err)
	}
	return snitches, path, nil
}

func (s *reportService) putFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = s.store.Put(ctx, key, f, storage.PutObjectOptions{
		Size:        fi.Size(),
		ContentType: contentType,
	})
	return err
}

func (s *reportService) deleteObjects(ctx context.Context, keys ...string) error {
	var firstErr error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func reportName(name string, startAt time.Time) string {
	if name != "" {
		return name
	}
	return "Snitch Log " + startAt.Format("01/02/2006 15:04")
}

// List returns paginated reports without exposing repository types.
func (s *reportService) List(ctx context.Context, limit, offset int) (*ReportListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ReportListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a report by ID.
func (s *reportService) Get(ctx context.Context, id string) (*model.Report, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return rep, nil
}

// Events returns a report's timeline rows.
func (s *reportService) Events(ctx context.Context, id string, f repository.EventFilter) ([]model.Event, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return s.repo.ListEvents(ctx, id, f)
}

// Users derives the report's users from its events. Colors are
// assigned by order of first appearance, so they are stable for a
// given report.
func (s *reportService) Users(ctx context.Context, id string) ([]*model.User, error) {
	events, err := s.Events(ctx, id, repository.EventFilter{})
	if err != nil {
		return nil, err
	}
	return model.NewUsers(events), nil
}

// Delete removes a report's storage objects, then its rows. Rendered
// videos go too; their job rows cascade with the report.
func (s *reportService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReportNotFound
		}
		return err
	}

	if jobs, err := s.jobs.ListByReport(ctx, id); err == nil {
		for _, job := range jobs {
			if job.VideoKey != "" {
				_ = s.store.Delete(ctx, job.VideoKey)
			}
		}
	}

	// Delete from storage first; if this fails, keep DB rows so the
	// report stays visible instead of silently losing its files.
	if err := s.store.Delete(ctx, rep.EventsKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if rep.SnitchDBKey != "" {
		if err := s.store.Delete(ctx, rep.SnitchDBKey); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
