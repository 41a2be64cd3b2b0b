package nursing

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	g.POST("/nursing-records", h.Create)
	g.GET("/nursing-records", h.ListRecent)
	g.GET("/nursing-records/:id", h.Get)
	g.PATCH("/nursing-records/:id", h.Update)
	g.POST("/nursing-records/:id/sign", h.Sign)
	g.GET("/patients/:id/nursing-records", h.ListByPatient)
	g.GET("/patients/:id/chart", h.Chart)
}

func (h *Handler) Create(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.CreateRecord(c.Request().Context(), caller, req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecent(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	records, err := h.svc.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, nonNil(records))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	records, err := h.svc.ListByPatient(c.Request().Context(), id, limit)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, nonNil(records))
}

func (h *Handler) Chart(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	chart, err := h.svc.PatientChart(c.Request().Context(), id, limit)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, chart)
}

func (h *Handler) Update(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateRecord(c.Request().Context(), caller, id, req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Sign(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.SignRecord(c.Request().Context(), caller, id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	return n, nil
}

func nonNil(records []*Record) []*Record {
	if records == nil {
		return []*Record{}
	}
	return records
}
