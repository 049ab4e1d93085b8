package handler

import (
	"github.com/gofiber/fiber/v2"

	"snitchvis/internal/model"
	"snitchvis/internal/service"
)

// EnqueueRender handles POST /reports/:id/renders. The JSON body holds
// render options; an empty body renders with server defaults. Replies
// 202 with the queued job.
//
// @Summary Queue a video render
// @Tags renders
// @Accept json
// @Produce json
// @Param id path string true "report id"
// @Param options body model.RenderOptions false "render options"
// @Success 202 {object} model.RenderJob
// @Failure 404
// @Router /reports/{id}/renders [post]
func EnqueueRender(svc service.RenderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var opts model.RenderOptions
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&opts); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid render options")
			}
		}

		job, err := svc.Enqueue(c.UserContext(), id, opts)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
}

// ListReportRenders handles GET /reports/:id/renders.
func ListReportRenders(svc service.RenderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		jobs, err := svc.ListByReport(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": jobs})
	}
}

// ListRenders handles GET /renders with limit & offset.
//
// @Summary List render jobs
// @Tags renders
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "page offset" default(0)
// @Success 200 {object} service.RenderJobListResult
// @Router /renders [get]
func ListRenders(svc service.RenderService) fiber.Handler {
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

// GetRenderJob handles GET /renders/:id. Completed jobs carry a
// presigned video URL.
//
// @Summary Get a render job
// @Tags renders
// @Produce json
// @Param id path string true "render job id"
// @Success 200 {object} model.RenderJob
// @Failure 404
// @Router /renders/{id} [get]
func GetRenderJob(svc service.RenderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(job)
	}
}
