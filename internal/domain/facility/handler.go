package facility

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
)

// Handler serves the reference lists used by roster and ward screens.
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleNurse, auth.RoleCoordinator))
	g.GET("/floors", h.ListFloors)
	g.GET("/areas", h.ListAreas)
	g.GET("/shifts", h.ListShifts)
}

func (h *Handler) ListFloors(c echo.Context) error {
	items, err := h.repo.ListFloors(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

func (h *Handler) ListAreas(c echo.Context) error {
	items, err := h.repo.ListAreas(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

type shiftView struct {
	*Shift
	Category ShiftCategory `json:"category"`
}

func (h *Handler) ListShifts(c echo.Context) error {
	items, err := h.repo.ListShifts(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	out := make([]shiftView, 0, len(items))
	for _, s := range items {
		out = append(out, shiftView{Shift: s, Category: s.Category()})
	}
	return c.JSON(http.StatusOK, out)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
