package ward

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleNurse, auth.RoleCoordinator))
	g.GET("/ward/floors", h.Floors)
	g.GET("/ward/map", h.WardMap)
	g.GET("/ward/floors/:floorId/beds", h.FloorBeds)
	g.GET("/patients", h.ListPatients)

	admin := api.Group("", auth.RequireRole(auth.RoleCoordinator))
	admin.POST("/ward/floors/:floorId/refresh", h.RefreshFloor)
}

func (h *Handler) Floors(c echo.Context) error {
	items, err := h.svc.Floors(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*facility.Floor{}
	}
	return c.JSON(http.StatusOK, items)
}

// WardMap serves the floor picked in the filter. No floor selected means an
// empty map.
func (h *Handler) WardMap(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("floor_id"))
	if raw == "" {
		return c.JSON(http.StatusOK, []BedOccupancy{})
	}
	return h.serveMap(c, raw)
}

func (h *Handler) FloorBeds(c echo.Context) error {
	return h.serveMap(c, c.Param("floorId"))
}

func (h *Handler) serveMap(c echo.Context, raw string) error {
	floorID, err := uuid.Parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid floor id")
	}
	items, err := h.svc.WardMap(c.Request().Context(), floorID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// RefreshFloor drops the cached map of a floor so the next read sees bed
// assignments changed outside this service.
func (h *Handler) RefreshFloor(c echo.Context) error {
	floorID, err := uuid.Parse(c.Param("floorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid floor id")
	}
	if err := h.svc.Invalidate(c.Request().Context(), floorID); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatients(c echo.Context) error {
	items, err := h.svc.ListPatients(c.Request().Context(), strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}
