package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"snitchvis/internal/render"
	"snitchvis/internal/repository"
)

// SceneLoader assembles renderable scenes from persisted reports. The
// frame, playback and render services all go through it.
type SceneLoader interface {
	// Load builds the scene for a report. allSnitches widens the view
	// to every snitch instead of just the ones with events.
	Load(ctx context.Context, reportID string, allSnitches bool) (*render.Scene, error)
}

type sceneLoader struct {
	repo repository.ReportRepository
}

// NewSceneLoader constructs a SceneLoader backed by the report repository.
func NewSceneLoader(repo repository.ReportRepository) SceneLoader {
	return &sceneLoader{repo: repo}
}

func (l *sceneLoader) Load(ctx context.Context, reportID string, allSnitches bool) (*render.Scene, error) {
	if reportID == "" {
		return nil, ErrIDRequired
	}
	if _, err := l.repo.FindByID(ctx, reportID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	events, err := l.repo.ListEvents(ctx, reportID, repository.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	snitches, err := l.repo.ListSnitches(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load snitches: %w", err)
	}

	scene, err := render.NewScene(events, snitches, nil, allSnitches)
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	return scene, nil
}
