package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"snitchvis/internal/http/middleware"
	"snitchvis/internal/service"
)

// Services bundles everything the HTTP surface depends on. Tiles is
// nil when no tile source is configured; the tile route is then not
// registered.
type Services struct {
	Reports  service.ReportService
	Renders  service.RenderService
	Frames   service.FrameService
	Playback service.PlaybackService
	Tiles    TileServer
}

// RegisterRoutes attaches the API routes to the Fiber app. Handlers
// stay thin; all business logic lives in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Frames at a fixed t are deterministic for a given report and the
	// terrain rarely changes, so browsers can reuse both.
	frameCache := middleware.CacheControl("public, max-age=3600")
	liveCache := middleware.CacheControl("no-store")

	app.Get("/reports", ListReports(svcs.Reports))
	app.Post("/reports", IngestReport(svcs.Reports))
	app.Get("/reports/:id", GetReport(svcs.Reports))
	app.Delete("/reports/:id", DeleteReport(svcs.Reports))
	app.Get("/reports/:id/users", GetReportUsers(svcs.Reports))
	app.Get("/reports/:id/events", ListReportEvents(svcs.Reports))
	app.Get("/reports/:id/frame", frameCache, GetReportFrame(svcs.Frames))

	app.Post("/reports/:id/renders", EnqueueRender(svcs.Renders))
	app.Get("/reports/:id/renders", ListReportRenders(svcs.Renders))
	app.Get("/renders", ListRenders(svcs.Renders))
	app.Get("/renders/:id", GetRenderJob(svcs.Renders))

	if svcs.Tiles != nil {
		app.Get("/tiles/z0/:i/:j", frameCache, ServeTile(svcs.Tiles))
	}

	app.Post("/reports/:id/playback", CreatePlayback(svcs.Playback))
	app.Get("/playback/:id", GetPlaybackState(svcs.Playback))
	app.Post("/playback/:id/control", ControlPlayback(svcs.Playback))
	app.Get("/playback/:id/frame", liveCache, GetPlaybackFrame(svcs.Playback))
	app.Post("/playback/:id/users", SetPlaybackUser(svcs.Playback))
	app.Delete("/playback/:id", DeletePlayback(svcs.Playback))
}
