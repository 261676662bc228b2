package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oneaccount/api/internal/apperr"
	"oneaccount/api/internal/models"
	"oneaccount/api/internal/service"
)

// stubAuthenticator resolves any token equal to its accept field and records
// which token was handed to it.
type stubAuthenticator struct {
	accept    string
	principal service.Principal
	gotToken  string
}

func (s *stubAuthenticator) resolve(token string) (service.Principal, error) {
	s.gotToken = token
	if token != s.accept {
		return service.Principal{}, apperr.Unauthorized("invalid access token")
	}
	return s.principal, nil
}

func (s *stubAuthenticator) ResolveAccount(_ context.Context, token string) (service.Principal, error) {
	return s.resolve(token)
}

func (s *stubAuthenticator) ResolveUser(_ context.Context, token string) (service.Principal, error) {
	return s.resolve(token)
}

func (s *stubAuthenticator) ResolveAdmin(_ context.Context, token string) (service.Principal, error) {
	return s.resolve(token)
}

func (s *stubAuthenticator) ResolveSuperAdmin(_ context.Context, token string) (service.Principal, error) {
	return s.resolve(token)
}

func newGuardedRouter(guard gin.HandlerFunc) (*gin.Engine, *service.Principal) {
	gin.SetMode(gin.TestMode)
	seen := &service.Principal{}
	router := gin.New()
	router.GET("/guarded", guard, func(c *gin.Context) {
		principal, _ := CurrentPrincipal(c)
		*seen = principal
		c.Status(http.StatusOK)
	})
	return router, seen
}

func TestAccountAuth(t *testing.T) {
	t.Parallel()

	principal := service.Principal{Account: models.Account{ID: "acc-1"}}

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		auth := &stubAuthenticator{accept: "good", principal: principal}
		router, _ := newGuardedRouter(AccountAuth(auth))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/guarded", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cookie token resolves the principal", func(t *testing.T) {
		t.Parallel()
		auth := &stubAuthenticator{accept: "good", principal: principal}
		router, seen := newGuardedRouter(AccountAuth(auth))

		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: AccountTokenCookie, Value: "good"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acc-1", seen.Account.ID)
	})

	t.Run("bearer header works without a cookie", func(t *testing.T) {
		t.Parallel()
		auth := &stubAuthenticator{accept: "good", principal: principal}
		router, _ := newGuardedRouter(AccountAuth(auth))

		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie wins over the header", func(t *testing.T) {
		t.Parallel()
		auth := &stubAuthenticator{accept: "cookie-token", principal: principal}
		router, _ := newGuardedRouter(AccountAuth(auth))

		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: AccountTokenCookie, Value: "cookie-token"})
		req.Header.Set("Authorization", "Bearer header-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cookie-token", auth.gotToken)
	})

	t.Run("rejected token surfaces the resolver status", func(t *testing.T) {
		t.Parallel()
		auth := &stubAuthenticator{accept: "good", principal: principal}
		router, _ := newGuardedRouter(AccountAuth(auth))

		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: AccountTokenCookie, Value: "bad"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})
}

func TestAdminAuthIgnoresBearerHeader(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{accept: "admin-token"}
	router, _ := newGuardedRouter(AdminAuth(auth))

	// The admin guard only accepts its own cookie; an account token in the
	// Authorization header must not reach the resolver.
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, auth.gotToken)
}

func TestAdminAuthCookie(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{
		accept:    "admin-token",
		principal: service.Principal{Account: models.Account{ID: "acc-2"}, Admin: &models.Admin{ID: "adm-1"}},
	}
	router, seen := newGuardedRouter(AdminAuth(auth))

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: AdminTokenCookie, Value: "admin-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen.Admin)
	assert.Equal(t, "adm-1", seen.Admin.ID)
}
