package handler

import (
	"github.com/gofiber/fiber/v2"

	"snitchvis/internal/service"
)

// CreatePlayback handles POST /reports/:id/playback: it loads the
// report's scene into a new interactive session.
func CreatePlayback(svc service.PlaybackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var in service.CreateSessionInput
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid session options")
			}
		}

		st, err := svc.Create(c.UserContext(), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(st)
	}
}

// GetPlaybackState handles GET /playback/:id.
func GetPlaybackState(svc service.PlaybackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		st, err := svc.State(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(st)
	}
}

// ControlPlayback handles POST /playback/:id/control. The body is one
// transport command: {action, position_ms?, speed?, direction?}.
func ControlPlayback(svc service.PlaybackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var in service.ControlInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid control command")
		}

		st, err := svc.Control(c.UserContext(), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(st)
	}
}

// GetPlaybackFrame handles GET /playback/:id/frame: the current frame
// of a live session as PNG.
func GetPlaybackFrame(svc service.PlaybackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		width, err := queryInt(c, "width", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", "invalid width")
		}
		height, err := queryInt(c, "height", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", "invalid height")
		}

		data, err := svc.Frame(c.UserContext(), id, width, height)
		if err != nil {
			return serviceError(c, err)
		}
		c.Type("png")
		return c.Send(data)
	}
}

// playbackUserInput toggles a user's visibility in a session.
type playbackUserInput struct {
	Username string `json:"username"`
	Enabled  *bool  `json:"enabled"`
}

// SetPlaybackUser handles POST /playback/:id/users.
func SetPlaybackUser(svc service.PlaybackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var in playbackUserInput
		if err := c.BodyParser(&in); err != nil || in.Username == "" || in.Enabled == nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "username and enabled are required")
		}

		st, err := svc.SetUserEnabled(c.UserContext(), id, in.Username, *in.Enabled)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(st)
	}
}

// DeletePlayback handles DELETE /playback/:id.
func DeletePlayback(svc service.PlaybackService) fiber.Handler {
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
