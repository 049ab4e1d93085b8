package handler

import (
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"snitchvis/internal/model"
	"snitchvis/internal/repository"
	"snitchvis/internal/service"
)

// queryInt parses an integer query parameter, using def when absent.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func queryInt64(c *fiber.Ctx, name string, def int64) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// parseID validates a UUID path parameter.
func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListReports handles GET /reports with limit & offset.
//
// @Summary List reports
// @Tags reports
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.ReportListResult
// @Router /reports [get]
func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := queryInt(c, "limit", 10)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := queryInt(c, "offset", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// IngestReport handles POST /reports (multipart/form-data).
//
// @Summary Upload a snitch event log
// @Tags reports
// @Accept mpfd
// @Produce json
// @Param events formData file true "snitch event log"
// @Param snitches formData file false "snitch sqlite database"
// @Param name formData string false "report name"
// @Param reference_at formData string false "RFC 3339 time anchoring clock-only timestamps"
// @Success 201 {object} model.Report
// @Failure 400
// @Router /reports [post]
func IngestReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eventsFH, err := c.FormFile("events")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "EVENTS_REQUIRED", "events file is required")
		}
		events, err := eventsFH.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer events.Close()

		var snitches multipart.File
		if fh, err := c.FormFile("snitches"); err == nil {
			if snitches, err = fh.Open(); err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer snitches.Close()
		}

		var ref time.Time
		if raw := c.FormValue("reference_at"); raw != "" {
			ref, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_REFERENCE_AT", "reference_at must be RFC 3339")
			}
		}

		in := service.IngestInput{
			Name:        c.FormValue("name"),
			Events:      events,
			ReferenceAt: ref,
		}
		if snitches != nil {
			in.SnitchDB = snitches
		}

		rep, err := svc.Ingest(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rep)
	}
}

// GetReport handles GET /reports/:id.
//
// @Summary Get a report
// @Tags reports
// @Produce json
// @Param id path string true "report id"
// @Success 200 {object} model.Report
// @Failure 404
// @Router /reports/{id} [get]
func GetReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rep, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(rep)
	}
}

// GetReportUsers handles GET /reports/:id/users.
func GetReportUsers(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		users, err := svc.Users(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": users})
	}
}

// ListReportEvents handles GET /reports/:id/events with optional
// username, from_ms and to_ms filters.
func ListReportEvents(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fromMS, err := queryInt64(c, "from_ms", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "invalid from_ms")
		}
		toMS, err := queryInt64(c, "to_ms", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "invalid to_ms")
		}

		events, err := svc.Events(c.UserContext(), id, repository.EventFilter{
			Username: c.Query("username"),
			FromMS:   fromMS,
			ToMS:     toMS,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": events})
	}
}

// DeleteReport handles DELETE /reports/:id.
//
// @Summary Delete a report and everything derived from it
// @Tags reports
// @Param id path string true "report id"
// @Success 204
// @Failure 404
// @Router /reports/{id} [delete]
func DeleteReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetReportFrame handles GET /reports/:id/frame, the scrubbing surface:
// it renders a single PNG frame at timeline position t (milliseconds).
func GetReportFrame(svc service.FrameService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		atMS, err := queryInt64(c, "t", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_T", "invalid t")
		}
		opts, err := frameOptions(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OPTIONS", err.Error())
		}

		data, err := svc.Frame(c.UserContext(), id, atMS, opts)
		if err != nil {
			return serviceError(c, err)
		}
		c.Type("png")
		return c.Send(data)
	}
}

// frameOptions reads the rendering options shared by the frame
// endpoints from query parameters.
func frameOptions(c *fiber.Ctx) (model.RenderOptions, error) {
	var opts model.RenderOptions
	var err error
	if opts.Width, err = queryInt(c, "width", 0); err != nil {
		return opts, err
	}
	if opts.Height, err = queryInt(c, "height", 0); err != nil {
		return opts, err
	}
	if opts.FadeMS, err = queryInt64(c, "fade_ms", 0); err != nil {
		return opts, err
	}
	opts.AllSnitches = c.QueryBool("all_snitches")
	opts.Tiles = c.QueryBool("tiles")
	return opts, nil
}
