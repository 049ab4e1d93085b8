package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"snitchvis/internal/config"
	"snitchvis/internal/metrics"
	"snitchvis/internal/model"
	"snitchvis/internal/render"
	"snitchvis/internal/repository"
	"snitchvis/internal/storage"
	"snitchvis/internal/video"
)

var ErrJobNotFound = errors.New("render job not found")

// presignExpiry is how long download links for finished videos stay
// valid.
const presignExpiry = time.Hour

// Recorder renders a scene's timeline into a video file;
// *video.Recorder implements it.
type Recorder interface {
	Record(ctx context.Context, scene *render.Scene, opts model.RenderOptions, background image.Image, out string) error
}

// RenderJobListResult is the service-level DTO for paginated render
// jobs.
type RenderJobListResult struct {
	Items []model.RenderJob `json:"data"`
	Total int               `json:"total"`
}

// RenderService runs asynchronous video renders. Jobs are persisted
// immediately and picked up by a single background worker, so queued
// work survives restarts.
type RenderService interface {
	// Enqueue validates the report, persists a queued job and wakes the
	// worker. Zero option values fall back to the configured defaults.
	Enqueue(ctx context.Context, reportID string, opts model.RenderOptions) (*model.RenderJob, error)

	// Get returns a render job; completed jobs carry a presigned
	// download URL.
	Get(ctx context.Context, id string) (*model.RenderJob, error)

	// List returns render jobs across all reports using limit/offset.
	List(ctx context.Context, limit, offset int) (*RenderJobListResult, error)

	// ListByReport returns a report's render jobs, newest first.
	ListByReport(ctx context.Context, reportID string) ([]model.RenderJob, error)

	// Start launches the worker; it first drains jobs queued before the
	// last shutdown.
	Start(ctx context.Context)

	// Stop waits for the current job and halts the worker.
	Stop()
}

type renderService struct {
	jobs    repository.RenderJobRepository
	reports repository.ReportRepository
	scenes  SceneLoader
	store   storage.Storage
	tiles   TileComposer
	rec     Recorder
	metrics *metrics.Metrics
	cfg     config.RenderConfig

	poll     time.Duration
	notify   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRenderService constructs a RenderService. tiles may be nil when
// no tile source is configured.
func NewRenderService(
	jobs repository.RenderJobRepository,
	reports repository.ReportRepository,
	scenes SceneLoader,
	store storage.Storage,
	tiles TileComposer,
	rec Recorder,
	m *metrics.Metrics,
	cfg config.RenderConfig,
) RenderService {
	return &renderService{
		jobs:    jobs,
		reports: reports,
		scenes:  scenes,
		store:   store,
		tiles:   tiles,
		rec:     rec,
		metrics: m,
		cfg:     cfg,
		poll:    5 * time.Second,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *renderService) Enqueue(ctx context.Context, reportID string, opts model.RenderOptions) (*model.RenderJob, error) {
	if reportID == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.reports.FindByID(ctx, reportID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	job := &model.RenderJob{
		ID:        uuid.New().String(),
		ReportID:  reportID,
		Status:    model.RenderQueued,
		Options:   s.applyDefaults(opts),
		CreatedAt: time.Now().UTC(),
	}
	stored, err := s.jobs.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return stored, nil
}

func (s *renderService) applyDefaults(opts model.RenderOptions) model.RenderOptions {
	opts.FPS = defaultInt(opts.FPS, s.cfg.FPS)
	opts.DurationSec = defaultInt(opts.DurationSec, s.cfg.DurationSec)
	opts.Width = defaultInt(opts.Width, s.cfg.Width)
	opts.Height = defaultInt(opts.Height, s.cfg.Height)
	opts.FadeMS = defaultInt64(opts.FadeMS, s.cfg.FadeMS)
	return opts
}

func (s *renderService) Get(ctx context.Context, id string) (*model.RenderJob, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	s.presign(ctx, job)
	return job, nil
}

func (s *renderService) List(ctx context.Context, limit, offset int) (*RenderJobListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.jobs.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.presign(ctx, &res.Items[i])
	}
	return &RenderJobListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *renderService) ListByReport(ctx context.Context, reportID string) ([]model.RenderJob, error) {
	if reportID == "" {
		return nil, ErrIDRequired
	}
	if _, err := s.reports.FindByID(ctx, reportID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	jobs, err := s.jobs.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		s.presign(ctx, &jobs[i])
	}
	return jobs, nil
}

// presign fills VideoURL for completed jobs; a presign failure leaves
// the URL empty rather than failing the read.
func (s *renderService) presign(ctx context.Context, job *model.RenderJob) {
	if job.Status != model.RenderCompleted || job.VideoKey == "" {
		return
	}
	url, err := s.store.PresignGet(ctx, job.VideoKey, presignExpiry)
	if err != nil {
		s.logJSON(map[string]any{
			"event":         "presign_failed",
			"status":        "error",
			"job_id":        job.ID,
			"error_message": err.Error(),
		})
		return
	}
	job.VideoURL = url
}

func (s *renderService) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
}

func (s *renderService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *renderService) worker(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		s.drain(ctx)
		select {
		case <-ticker.C:
		case <-s.notify:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain processes every queued job, oldest first. It runs once at
// startup, which is what re-queues jobs left over from a previous
// process.
func (s *renderService) drain(ctx context.Context) {
	queued, err := s.jobs.ListByStatus(ctx, model.RenderQueued)
	if err != nil {
		s.logJSON(map[string]any{
			"event":         "list_queued_failed",
			"status":        "error",
			"error_message": err.Error(),
		})
		return
	}
	for i := range queued {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		default:
		}
		s.process(ctx, &queued[i])
	}
}

func (s *renderService) process(ctx context.Context, job *model.RenderJob) {
	started := time.Now().UTC()
	job.Status = model.RenderRunning
	job.StartedAt = &started
	if err := s.jobs.Update(ctx, job); err != nil {
		s.logJSON(map[string]any{
			"event":         "job_claim_failed",
			"status":        "error",
			"job_id":        job.ID,
			"error_message": err.Error(),
		})
		return
	}
	s.logJSON(map[string]any{
		"event":     "job_started",
		"status":    "in_progress",
		"job_id":    job.ID,
		"report_id": job.ReportID,
	})

	key, err := s.renderVideo(ctx, job)
	finished := time.Now().UTC()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = model.RenderFailed
		job.Error = err.Error()
	} else {
		job.Status = model.RenderCompleted
		job.VideoKey = key
	}
	if uerr := s.jobs.Update(ctx, job); uerr != nil {
		s.logJSON(map[string]any{
			"event":         "job_update_failed",
			"status":        "error",
			"job_id":        job.ID,
			"error_message": uerr.Error(),
		})
	}

	s.metrics.ObserveRenderJob(string(job.Status), finished.Sub(started))
	s.logJSON(map[string]any{
		"event":         "job_finished",
		"status":        string(job.Status),
		"job_id":        job.ID,
		"report_id":     job.ReportID,
		"duration_ms":   finished.Sub(started).Milliseconds(),
		"error_message": job.Error,
	})
}

// renderVideo runs one job end to end: scene, optional terrain,
// ffmpeg recording into a temp file, upload. It returns the stored
// video key.
func (s *renderService) renderVideo(ctx context.Context, job *model.RenderJob) (string, error) {
	scene, err := s.scenes.Load(ctx, job.ReportID, job.Options.AllSnitches)
	if err != nil {
		return "", err
	}

	var background image.Image
	if job.Options.Tiles && s.tiles != nil {
		size := render.NewFrameRenderer(scene, render.Options{
			Width:  video.RecordSize,
			Height: video.RecordSize,
		}).DrawSize()
		bg, err := s.tiles.Compose(ctx, scene.Bounds, size)
		if err != nil {
			return "", fmt.Errorf("compose tiles: %w", err)
		}
		background = bg
	}

	tmp, err := os.CreateTemp("", "render-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create temp video: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := s.rec.Record(ctx, scene, job.Options, background, path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open rendered video: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat rendered video: %w", err)
	}

	key := "renders/" + job.ID + ".mp4"
	if _, err := s.store.Put(ctx, key, f, storage.PutObjectOptions{
		Size:        fi.Size(),
		ContentType: "video/mp4",
	}); err != nil {
		return "", fmt.Errorf("upload video to storage: %w", err)
	}
	return key, nil
}

func (s *renderService) logJSON(data map[string]any) {
	data["component"] = "render_worker"
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal render log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
