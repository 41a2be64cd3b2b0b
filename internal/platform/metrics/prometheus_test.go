package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/v1/floors/:id/ward", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/floors/:id/ward", "200"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/floors/"+id+"/ward", nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/floors/:id/ward", "200"))
	if after-before != 2 {
		t.Errorf("expected 2 requests on one series, got %v", after-before)
	}
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.POST("/api/v1/roster/assignments", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "taken")
	})

	series := httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/roster/assignments", "409")
	before := testutil.ToFloat64(series)
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/roster/assignments", nil))
	if testutil.ToFloat64(series)-before != 1 {
		t.Error("expected the 409 to be counted")
	}
}

func TestBusinessCounters(t *testing.T) {
	before := testutil.ToFloat64(nursingRecordsCreated.WithLabelValues("true"))
	RecordNursingRecord(true)
	if testutil.ToFloat64(nursingRecordsCreated.WithLabelValues("true"))-before != 1 {
		t.Error("expected fallback record to be counted")
	}

	before = testutil.ToFloat64(nursingCompensations.WithLabelValues("failed"))
	RecordCompensation(false)
	if testutil.ToFloat64(nursingCompensations.WithLabelValues("failed"))-before != 1 {
		t.Error("expected failed compensation to be counted")
	}

	before = testutil.ToFloat64(assignmentsSubmitted.WithLabelValues("SCHEDULING_CONFLICT"))
	RecordAssignment("SCHEDULING_CONFLICT")
	if testutil.ToFloat64(assignmentsSubmitted.WithLabelValues("SCHEDULING_CONFLICT"))-before != 1 {
		t.Error("expected conflict to be counted")
	}
}

func TestHandler_Exposition(t *testing.T) {
	RecordCacheLookup("hit")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ward_map_cache_lookups_total") {
		t.Error("expected ward cache counter in exposition")
	}
}
