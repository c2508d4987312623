package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// stubAuthService accepts exactly one token.
type stubAuthService struct {
	ports.AuthService
	validToken string
	session    domain.SessionPayload
}

func (s *stubAuthService) CheckAccess(_ context.Context, token string) (*domain.SessionPayload, error) {
	if token != s.validToken {
		return nil, domain.ErrUnauthenticated
	}
	session := s.session
	return &session, nil
}

func newStubAuth() *stubAuthService {
	return &stubAuthService{
		validToken: "good-token",
		session:    domain.SessionPayload{UserID: "1", SessionID: "s-1", IsPrivileged: true},
	}
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newStubAuth())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newStubAuth())(func(c echo.Context) error {
		called = true
		if c.Get(ContextKeyUserID) != "1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(ContextKeySessionID) != "s-1" {
			t.Fatalf("session_id not set")
		}
		if c.Get(ContextKeyIsPrivileged) != true {
			t.Fatalf("is_privileged not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token good-token"},
		{"empty token", "Bearer "},
		{"invalid token", "Bearer invalidToken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := runAuth(t, tt.header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	rec, called := runAuth(t, "bearer good-token")
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected lowercase scheme to be accepted, got %d", rec.Code)
	}
}

func TestRequirePrivileged(t *testing.T) {
	tests := []struct {
		name       string
		privileged any
		wantCode   int
	}{
		{"privileged", true, http.StatusOK},
		{"not privileged", false, http.StatusForbidden},
		{"unset", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.privileged != nil {
				c.Set(ContextKeyIsPrivileged, tt.privileged)
			}

			handler := RequirePrivileged()(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			_ = handler(c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}
