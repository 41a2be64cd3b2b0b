package calendar

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
)

type Handler struct {
	svc *Service
	now func() time.Time
	loc *time.Location
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now, loc: time.UTC}
}

// WithLocation sets the facility time zone that decides the current month.
func (h *Handler) WithLocation(loc *time.Location) *Handler {
	if loc != nil {
		h.loc = loc
	}
	return h
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleNurse, auth.RoleCoordinator))
	g.GET("/calendar", h.Current)
	g.GET("/calendar/:year/:month", h.Month)
	g.GET("/calendar/:year/:month/export", h.Export)
}

type monthResponse struct {
	Month
	Weeks [][]Cell `json:"weeks"`
	Prev  string   `json:"prev"`
	Next  string   `json:"next"`
}

func (h *Handler) Current(c echo.Context) error {
	now := h.now().In(h.loc)
	return h.render(c, now.Year(), now.Month())
}

func (h *Handler) Month(c echo.Context) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	return h.render(c, year, month)
}

func (h *Handler) render(c echo.Context, year int, month time.Month) error {
	periodID, err := periodParam(c)
	if err != nil {
		return err
	}
	m, err := h.svc.Month(c.Request().Context(), year, month, periodID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	first := m.First()
	return c.JSON(http.StatusOK, monthResponse{
		Month: m,
		Weeks: m.Weeks(),
		Prev:  PrevMonth(first).Format("2006/01"),
		Next:  NextMonth(first).Format("2006/01"),
	})
}

func (h *Handler) Export(c echo.Context) error {
	year, month, err := yearMonth(c)
	if err != nil {
		return err
	}
	periodID, err := periodParam(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request().Context(), &buf, year, month, periodID); err != nil {
		return apperr.HTTPError(err)
	}
	name := fmt.Sprintf("roster-%04d-%02d.xlsx", year, int(month))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+name)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func yearMonth(c echo.Context) (int, time.Month, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid month")
	}
	return year, time.Month(month), nil
}

func periodParam(c echo.Context) (*uuid.UUID, error) {
	v := c.QueryParam("period_id")
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid period_id")
	}
	return &id, nil
}
