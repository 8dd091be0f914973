package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"areascope/internal/core/domain"
)

// areaRequest is the body of create and ring-update calls. The ring is a list
// of [lat, lon] pairs, open or closed; a closing duplicate is tolerated and
// stripped before storage.
type areaRequest struct {
	Ring domain.Ring `json:"ring"`
}

// sessionID resolves the interaction session for a request.
func sessionID(c *fiber.Ctx) string {
	if sid := c.Get("X-Session-Id"); sid != "" {
		return sid
	}
	return c.Query("session")
}

// ListAreasHandler returns every area in insertion order.
func ListAreasHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		areas := deps.Areas.List()
		if areas == nil {
			areas = []domain.Area{}
		}
		return c.JSON(areas)
	}
}

// GetAreaHandler returns a single area by id.
func GetAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return errBadRequest(c, "area id must be an integer")
		}
		area, ok := deps.Areas.Get(int64(id))
		if !ok {
			return errNotFound(c, "area not found")
		}
		return c.JSON(area)
	}
}

// CreateAreaHandler appends a new area from a completed ring.
func CreateAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req areaRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		area, err := deps.Areas.Create(c.Context(), stripClosing(req.Ring))
		if err != nil {
			if errors.Is(err, domain.ErrRingTooShort) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err.Error())
		}

		deps.Sessions.NoteAreaCreated(sessionID(c), deps.Areas.Count())
		return c.Status(201).JSON(area)
	}
}

// UpdateAreaRingHandler replaces an area's ring. The call is fire-and-forget
// for unknown ids: the area may have been erased mid-edit.
func UpdateAreaRingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return errBadRequest(c, "area id must be an integer")
		}

		var req areaRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if err := deps.Areas.UpdateRing(c.Context(), int64(id), stripClosing(req.Ring)); err != nil {
			if errors.Is(err, domain.ErrRingTooShort) {
				return errBadRequest(c, err.Error())
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// ToggleAreaVisibilityHandler flips an area's visible flag.
func ToggleAreaVisibilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return errBadRequest(c, "area id must be an integer")
		}

		visible, err := deps.Areas.ToggleVisibility(c.Context(), int64(id))
		if err != nil {
			if errors.Is(err, domain.ErrAreaNotFound) {
				return errNotFound(c, "area not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"id": int64(id), "visible": visible})
	}
}

// DeleteAreaHandler removes an area.
func DeleteAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return errBadRequest(c, "area id must be an integer")
		}

		if err := deps.Areas.Delete(c.Context(), int64(id)); err != nil {
			if errors.Is(err, domain.ErrAreaNotFound) {
				return errNotFound(c, "area not found")
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// FitAllHandler frames the view around every area.
func FitAllHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Areas.Count() == 0 {
			deps.Notices.Show("No areas to view")
			return c.SendStatus(204)
		}
		deps.Map.ViewAll()
		return c.SendStatus(204)
	}
}

// MapConfigHandler returns the initial view for a connecting map client.
func MapConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"center": fiber.Map{"lat": deps.MapCfg.CenterLat, "lon": deps.MapCfg.CenterLon},
			"zoom":   deps.MapCfg.Zoom,
		})
	}
}

// SearchHandler resolves a place name and pans the view there.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		result, err := deps.Locate.Locate(c.Context(), sessionID(c), query)
		if err != nil {
			return newError(c, 502, "geocode_failed", "search failed, please try again")
		}
		if result == nil {
			return c.JSON(fiber.Map{"found": false})
		}
		return c.JSON(fiber.Map{"found": true, "result": result})
	}
}

// NoticeHandler returns the transient status message, if one is showing.
func NoticeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{"message": deps.Notices.Current()})
	}
}

// SessionHandler reports the interaction state of a session.
func SessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := deps.Sessions.Get(sessionID(c))
		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{
			"mode": sess.Mode(),
			"step": sess.Step(),
		})
	}
}

// StartDrawingHandler activates polygon-draw mode.
func StartDrawingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Sessions.StartDrawing(c.Context(), sessionID(c))
		return c.JSON(fiber.Map{"mode": deps.Sessions.CurrentMode(sessionID(c))})
	}
}

// StartEditingHandler activates edit mode. Fails when no areas exist.
func StartEditingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		if err := deps.Sessions.StartEditing(c.Context(), sid); err != nil {
			return errConflict(c, "no areas to edit")
		}
		return c.JSON(fiber.Map{"mode": deps.Sessions.CurrentMode(sid)})
	}
}

// SelectEditTargetHandler picks the area whose vertices will be edited.
func SelectEditTargetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			ID int64 `json:"id"`
		}
		if err := c.BodyParser(&req); err != nil || req.ID == 0 {
			return errBadRequest(c, "id is required")
		}
		if _, ok := deps.Areas.Get(req.ID); !ok {
			return errNotFound(c, "area not found")
		}

		sid := sessionID(c)
		selected := deps.Sessions.SelectEditTarget(c.Context(), sid, req.ID)
		return c.JSON(fiber.Map{
			"selected": selected,
			"mode":     deps.Sessions.CurrentMode(sid),
		})
	}
}

// StopEditingHandler releases the edit target and returns to idle.
func StopEditingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		deps.Sessions.StopEditing(c.Context(), sid)
		return c.JSON(fiber.Map{"mode": deps.Sessions.CurrentMode(sid)})
	}
}

// StartErasingHandler activates erase mode. Fails when no areas exist.
func StartErasingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		if err := deps.Sessions.StartErasing(c.Context(), sid); err != nil {
			return errConflict(c, "no areas to erase")
		}
		return c.JSON(fiber.Map{"mode": deps.Sessions.CurrentMode(sid)})
	}
}

// CancelHandler returns the session to idle from any mode.
func CancelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		deps.Sessions.Cancel(c.Context(), sid)
		return c.JSON(fiber.Map{"mode": deps.Sessions.CurrentMode(sid)})
	}
}

// ConfirmHandler completes the definition workflow.
func ConfirmHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c)
		if err := deps.Sessions.Confirm(c.Context(), sid); err != nil {
			return errConflict(c, "at least one area is required")
		}
		return c.JSON(fiber.Map{"step": deps.Sessions.Get(sid).Step()})
	}
}

// HistoryHandler lists recent area mutations from the audit log.
func HistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.History == nil {
			return newError(c, 503, "unavailable", "history database not configured")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		events, err := deps.History.ListRecent(c.Context(), offset+limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		// The window query is capped at offset+limit rows; the total must
		// come from the full table or next/last links break on page two.
		total, err := deps.History.Count(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		if offset >= len(events) {
			events = nil
		} else {
			end := offset + limit
			if end > len(events) {
				end = len(events)
			}
			events = events[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: events, Pagination: pg})
	}
}

// stripClosing drops a duplicate closing point from an incoming ring.
func stripClosing(r domain.Ring) domain.Ring {
	if len(r) >= 2 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}
