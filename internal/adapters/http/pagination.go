package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps a history page with its offset window.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination describes an offset window into the event log.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// SetLinkHeaders writes RFC 8288 Link headers for the window. Only relations
// that exist are emitted: no prev on the first page, no next on the last.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	rel := func(name string, offset int) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel=%q`, c.Path(), offset, p.Limit, name)
	}

	last := p.Total - p.Limit
	if last < 0 {
		last = 0
	}

	links := []string{rel("first", 0)}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, rel("prev", prev))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, rel("next", p.Offset+p.Limit))
	}
	links = append(links, rel("last", last))

	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}
