package server

import (
	"fmt"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxPaginationLimit = 100

// Pagination is a clamped limit/offset window read from the query string.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination reads ?limit and ?offset. Non-positive limits fall back to
// def, limits above maxPaginationLimit are clamped and negative offsets become 0.
func parsePagination(c *fiber.Ctx, def int) Pagination {
	p := Pagination{Limit: c.QueryInt("limit", def), Offset: c.QueryInt("offset", 0)}
	if p.Limit <= 0 {
		p.Limit = def
	}
	p.Limit = min(p.Limit, maxPaginationLimit)
	p.Offset = max(p.Offset, 0)
	return p
}

// parseID reads a non-nil UUID route parameter.
func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, models.NewValidationError(fmt.Sprintf("Invalid %s", param))
	}
	return id, nil
}

// respondError writes err with the status its error code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func invalidBody(c *fiber.Ctx) error {
	return respondError(c, models.NewValidationError("Invalid request body"))
}
