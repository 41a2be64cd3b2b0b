package roster

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
	"github.com/wardroster/wardroster/internal/platform/dates"
	"github.com/wardroster/wardroster/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the roster API. Writes are open to every nurse at
// the route level so that non-coordinators get the service's typed
// permission error.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleNurse, auth.RoleCoordinator))
	g.GET("/rosters", h.ListPeriods)
	g.GET("/rosters/:id", h.GetPeriod)
	g.GET("/rosters/:id/assignments", h.ListPeriodAssignments)
	g.POST("/rosters", h.CreatePeriod)
	g.GET("/assignments", h.ListAssignments)
	g.GET("/assignments/:id", h.GetAssignment)
	g.POST("/assignments", h.SubmitAssignment)
}

type periodRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *Handler) CreatePeriod(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return err
	}
	var req periodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return err
	}
	end, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		return err
	}
	p := &Period{Name: req.Name, StartDate: start, EndDate: end}
	if err := h.svc.CreatePeriod(c.Request().Context(), caller, p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPeriod(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPeriod(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPeriods(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPeriods(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Period{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type assignmentRequest struct {
	PeriodID uuid.UUID `json:"period_id"`
	NurseID  uuid.UUID `json:"nurse_id"`
	ShiftID  uuid.UUID `json:"shift_id"`
	AreaID   uuid.UUID `json:"area_id"`
	Date     string    `json:"date"`
}

func (h *Handler) SubmitAssignment(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return err
	}
	var req assignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := parseDate(req.Date, "date")
	if err != nil {
		return err
	}
	a := &Assignment{PeriodID: req.PeriodID, NurseID: req.NurseID, ShiftID: req.ShiftID, AreaID: req.AreaID, Date: d}
	id, err := h.svc.SubmitAssignment(c.Request().Context(), caller, a)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"id": id, "assignment": a})
}

func (h *Handler) GetAssignment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAssignment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAssignments(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	return h.listAssignments(c, f)
}

func (h *Handler) ListPeriodAssignments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	f.PeriodID = &id
	return h.listAssignments(c, f)
}

func (h *Handler) listAssignments(c echo.Context, f AssignmentFilter) error {
	items, err := h.svc.ListAssignments(c.Request().Context(), f)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Assignment{}
	}
	return c.JSON(http.StatusOK, items)
}

func filterFromQuery(c echo.Context) (AssignmentFilter, error) {
	var f AssignmentFilter
	for name, dst := range map[string]**uuid.UUID{"period_id": &f.PeriodID, "nurse_id": &f.NurseID} {
		if v := c.QueryParam(name); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
			}
			*dst = &id
		}
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		if v := c.QueryParam(name); v != "" {
			d, err := parseDate(v, name)
			if err != nil {
				return f, err
			}
			*dst = &d
		}
	}
	return f, nil
}

func parseDate(v, field string) (time.Time, error) {
	if v == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, field+" is required")
	}
	d, err := dates.Parse(v)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, field+": "+err.Error())
	}
	return d, nil
}
