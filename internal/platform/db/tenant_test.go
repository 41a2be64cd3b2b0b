package db

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newCtx(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestExtractTenantID_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		jwt    string
		header string
		query  string
		want   string
	}{
		{"jwt wins", "north_wing", "header", "query", "north_wing"},
		{"empty jwt falls through", "", "header", "query", "header"},
		{"header over query", "", "header", "query", "header"},
		{"query", "", "", "query", "query"},
		{"default", "", "", "", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target = "/?tenant_id=" + tt.query
			}
			c := newCtx(target)
			if tt.header != "" {
				c.Request().Header.Set("X-Tenant-ID", tt.header)
			}
			c.Set("jwt_tenant_id", tt.jwt)

			if got := extractTenantID(c, "general"); got != tt.want {
				t.Errorf("extractTenantID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidTenantID(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"general", true},
		{"ward_3", true},
		{"A1B2", true},
		{"a-b", false},
		{"a.b", false},
		{"a b", false},
		{"", false},
		{"'; DROP SCHEMA public", false},
	}
	for _, tt := range tests {
		if got := ValidTenantID(tt.input); got != tt.valid {
			t.Errorf("ValidTenantID(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}

func TestSearchPath(t *testing.T) {
	if got := SearchPath("general"); got != "SET search_path TO tenant_general, public" {
		t.Errorf("unexpected search path: %s", got)
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	if ConnFromContext(ctx) != nil {
		t.Error("expected nil conn from empty context")
	}
	if TxFromContext(ctx) != nil {
		t.Error("expected nil tx from empty context")
	}
	if TenantFromContext(ctx) != "" {
		t.Error("expected empty tenant from empty context")
	}
}

func TestContextAccessors_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBConnKey, "not-a-conn")
	ctx = context.WithValue(ctx, DBTxKey, "not-a-tx")
	ctx = context.WithValue(ctx, TenantIDKey, 42)

	if ConnFromContext(ctx) != nil {
		t.Error("expected nil conn for wrong type")
	}
	if TxFromContext(ctx) != nil {
		t.Error("expected nil tx for wrong type")
	}
	if TenantFromContext(ctx) != "" {
		t.Error("expected empty tenant for wrong type")
	}
}

func TestWithTx_NoConnection(t *testing.T) {
	_, _, err := WithTx(context.Background())
	if err == nil {
		t.Fatal("expected error when no connection in context")
	}
	if err.Error() != "no database connection in context" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestTransactor_JoinsOpenTx(t *testing.T) {
	// A non-nil tx in context must be reused rather than a new one begun on
	// the (nil) pool.
	var tx fakeTx
	ctx := context.WithValue(context.Background(), DBTxKey, &tx)

	sentinel := errors.New("inner")
	called := false
	err := NewTransactor(nil).InTx(ctx, func(inner context.Context) error {
		called = true
		if TxFromContext(inner) != &tx {
			t.Error("expected the enclosing tx to be visible")
		}
		return sentinel
	})
	if !called {
		t.Fatal("fn was not called")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected inner error, got %v", err)
	}
}

func TestCreateTenantSchema_InvalidID(t *testing.T) {
	for _, id := range []string{"with-dash", "with.dot", "with space", "drop;table"} {
		if err := CreateTenantSchema(context.Background(), nil, id, nil); err == nil {
			t.Errorf("expected error for invalid tenant ID %q", id)
		}
	}
}

func TestTenantMiddleware_Skip(t *testing.T) {
	c := newCtx("/health")
	mw := TenantMiddleware(nil, "general", func(echo.Context) bool { return true })

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil || !called {
		t.Fatalf("expected skipped request to reach handler, err=%v called=%v", err, called)
	}
}

func TestTenantMiddleware_InvalidTenant(t *testing.T) {
	c := newCtx("/api/v1/floors")
	c.Request().Header.Set("X-Tenant-ID", "bad-tenant")

	err := TenantMiddleware(nil, "general", nil)(func(echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
