package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func invoke(mw echo.MiddlewareFunc, req *http.Request) (echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return c, handler(c)
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	osteopathID := uuid.New()
	tokenStr := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		OsteopathID: osteopathID.String(),
		Roles:       []string{"osteopath"},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)

	c, err := invoke(JWTMiddleware(JWTConfig{SigningKey: testKey}), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := c.Request().Context()
	if got := OsteopathIDFromContext(ctx); got != osteopathID {
		t.Errorf("expected osteopath %s on context, got %s", osteopathID, got)
	}
	if UserIDFromContext(ctx) != "user-1" {
		t.Errorf("expected user id user-1, got %s", UserIDFromContext(ctx))
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := invoke(JWTMiddleware(JWTConfig{SigningKey: testKey}), req)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddlewareRejectsMissingOsteopathClaim(t *testing.T) {
	tokenStr := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)

	_, err := invoke(JWTMiddleware(JWTConfig{SigningKey: testKey}), req)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing osteopath_id claim, got %v", err)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	osteopathID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, err := invoke(DevAuthMiddleware(osteopathID), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := OsteopathIDFromContext(c.Request().Context()); got != osteopathID {
		t.Errorf("expected dev osteopath %s, got %s", osteopathID, got)
	}
}

func TestRequireRole(t *testing.T) {
	osteopathID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	chain := DevAuthMiddleware(osteopathID)(RequireRole("admin")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	if err := chain(c); err != nil {
		t.Errorf("expected admin role to pass, got %v", err)
	}

	c2 := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	denied := DevAuthMiddleware(osteopathID)(RequireRole("auditor")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	err := denied(c2)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 for missing role, got %v", err)
	}
}
