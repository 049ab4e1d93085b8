package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// TileServer serves map tiles as encoded PNG bytes; *tiles.Service
// implements it.
type TileServer interface {
	PNG(ctx context.Context, i, j int) ([]byte, error)
}

// ServeTile handles GET /tiles/z0/:i/:j, the fetch-through tile cache.
// Tiles outside the served radius come back solid black.
func ServeTile(svc TileServer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, err := strconv.Atoi(c.Params("i"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TILE", "tile coordinates must be integers")
		}
		j, err := strconv.Atoi(c.Params("j"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TILE", "tile coordinates must be integers")
		}

		data, err := svc.PNG(c.UserContext(), i, j)
		if err != nil {
			return serviceError(c, err)
		}
		c.Type("png")
		return c.Send(data)
	}
}
