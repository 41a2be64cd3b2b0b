package staff

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
)

type mockRepo struct {
	nurses map[uuid.UUID]*Nurse
}

func newMockRepo(nurses ...*Nurse) *mockRepo {
	m := &mockRepo{nurses: make(map[uuid.UUID]*Nurse)}
	for _, n := range nurses {
		m.nurses[n.ID] = n
	}
	return m
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Nurse, error) {
	n, ok := m.nurses[id]
	if !ok {
		return nil, apperr.NotFound("nurse", id.String())
	}
	return n, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Nurse, int, error) {
	var out []*Nurse
	for _, n := range m.nurses {
		out = append(out, n)
	}
	return out, len(out), nil
}

func TestNurse_FullName(t *testing.T) {
	n := Nurse{FirstName: "Ana", PaternalName: "Pérez", MaternalName: " "}
	if got := n.FullName(); got != "Ana Pérez" {
		t.Errorf("unexpected full name %q", got)
	}
	n.MaternalName = "Soto"
	if got := n.FullName(); got != "Ana Pérez Soto" {
		t.Errorf("unexpected full name %q", got)
	}
}

func TestNurse_IsCoordinator(t *testing.T) {
	if !(Nurse{Role: "Coordinadora"}).IsCoordinator() {
		t.Error("expected coordinadora to count as coordinator")
	}
	if (Nurse{Role: "Enfermera"}).IsCoordinator() {
		t.Error("expected enfermera not to be a coordinator")
	}
}

func TestHandler_Get(t *testing.T) {
	n := &Nurse{ID: uuid.New(), FirstName: "Ana", PaternalName: "Pérez", Role: "Enfermera"}
	h := NewHandler(newMockRepo(n))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	h := NewHandler(newMockRepo())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.Get(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h := NewHandler(newMockRepo())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.Get(c); err == nil {
		t.Error("expected error for non-uuid id")
	}
}

func TestHandler_Me(t *testing.T) {
	n := &Nurse{ID: uuid.New(), FirstName: "Luz", PaternalName: "Rojas", Role: "Coordinadora"}
	h := NewHandler(newMockRepo(n))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{NurseID: n.ID, Roles: []string{auth.RoleCoordinator}}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["can_edit_roster"] != true {
		t.Errorf("expected coordinator to edit, got %v", body)
	}
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	h := NewHandler(newMockRepo())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Me(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
