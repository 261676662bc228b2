package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oneaccount/api/internal/config"
	"oneaccount/api/internal/middleware"
	"oneaccount/api/internal/models"
	"oneaccount/api/internal/security"
	"oneaccount/api/internal/service"
	"oneaccount/api/internal/testutil"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testutil.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTokenAuthority(map[security.Tier]security.TierKey{
		security.TierAccount:    {Secret: "account-test-secret", TTL: time.Hour},
		security.TierAdmin:      {Secret: "admin-test-secret", TTL: time.Hour},
		security.TierSuperAdmin: {Secret: "superadmin-test-secret", TTL: time.Hour},
	})
	require.NoError(t, err)

	cfg := &config.AppConfig{}
	cfg.Security.InitialAdminPassword = "initial-admin-pass"
	cfg.Security.AccountToken.TTL = time.Hour
	cfg.Security.AdminToken.TTL = time.Hour
	cfg.Security.SuperAdminToken.TTL = time.Hour

	store := testutil.NewMemoryStore()
	identity := service.NewIdentityService(
		store, store, &testutil.BlobRecorder{}, testutil.NewCountingLimiter(0),
		tokens, cfg, testutil.NopLogger(),
	)

	h := HandlerSet{log: testutil.NopLogger(), cfg: cfg, identity: identity}
	router := gin.New()
	h.Register(router.Group(""))
	return router, store
}

// apiClient drives the router like a cookie-aware HTTP client.
type apiClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]string
}

func newAPIClient(t *testing.T, router *gin.Engine) *apiClient {
	return &apiClient{t: t, router: router, cookies: make(map[string]string)}
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAccountAndUserFlow(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	client := newAPIClient(t, router)

	rec := client.do(http.MethodPost, "/v1/account/register", gin.H{
		"name":     "Flow Person",
		"email":    "flow@example.com",
		"phone":    "+15550200",
		"password": "pass-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pass-word-1")
	assert.NotContains(t, rec.Body.String(), "argon2id")

	rec = client.do(http.MethodPost, "/v1/account/login", gin.H{
		"email": "flow@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, client.cookies, "failed login must not set a cookie")

	// The account exists but the USER role does not yet.
	rec = client.do(http.MethodPost, "/v1/user/login", gin.H{
		"email": "flow@example.com", "password": "pass-word-1",
	})
	assert.Equal(t, http.StatusTooEarly, rec.Code)

	rec = client.do(http.MethodPost, "/v1/user/register", gin.H{"email": "flow@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = client.do(http.MethodPost, "/v1/user/login", gin.H{
		"email": "flow@example.com", "password": "pass-word-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, client.cookies, middleware.AccountTokenCookie)

	rec = client.do(http.MethodGet, "/v1/user", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Contains(t, string(body["user"]), "Flow Person")

	// The account-tier cookie carries no admin authority.
	rec = client.do(http.MethodGet, "/v1/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = client.do(http.MethodPost, "/v1/user/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, client.cookies, middleware.AccountTokenCookie)

	rec = client.do(http.MethodGet, "/v1/user", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuperAdminElevationFlow(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	boss := newAPIClient(t, router)

	rec := boss.do(http.MethodPost, "/v1/account/register", gin.H{
		"name":     "Boss Person",
		"email":    "boss@example.com",
		"phone":    "+15550210",
		"password": "pass-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = boss.do(http.MethodPost, "/v1/super-admin/register", gin.H{
		"email":         "boss@example.com",
		"password":      "pass-word-1",
		"superPassword": "super-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "argon2id")

	rec = boss.do(http.MethodPost, "/v1/super-admin/login", gin.H{
		"email":         "boss@example.com",
		"password":      "pass-word-1",
		"superPassword": "super-word-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, boss.cookies, middleware.SuperAdminTokenCookie)

	rec = boss.do(http.MethodGet, "/v1/super-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Target account to elevate.
	staff := newAPIClient(t, router)
	rec = staff.do(http.MethodPost, "/v1/account/register", gin.H{
		"name":     "Staff Person",
		"email":    "staff@example.com",
		"phone":    "+15550211",
		"password": "pass-word-2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	targetID := created.Account.ID

	rec = boss.do(http.MethodGet, "/v1/super-admin/account/"+targetID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "staff@example.com")

	rec = boss.do(http.MethodPost, "/v1/super-admin/add-admin", gin.H{
		"targetAccountId": targetID,
		"password":        "pass-word-1",
		"superPassword":   "super-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = boss.do(http.MethodPost, "/v1/super-admin/add-admin", gin.H{
		"targetAccountId": targetID,
		"password":        "pass-word-1",
		"superPassword":   "super-word-1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The elevated account logs in with the initial admin password and its
	// admin cookie passes the admin guard.
	rec = staff.do(http.MethodPost, "/v1/admin/login", gin.H{
		"email":         "staff@example.com",
		"password":      "pass-word-2",
		"adminPassword": "initial-admin-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, staff.cookies, middleware.AdminTokenCookie)

	rec = staff.do(http.MethodGet, "/v1/admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The superadmin cookie does not satisfy the admin guard.
	rec = boss.do(http.MethodGet, "/v1/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardsRejectSuspendedRoles(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t)
	client := newAPIClient(t, router)

	rec := client.do(http.MethodPost, "/v1/account/register", gin.H{
		"name":     "Frozen Person",
		"email":    "frozen@example.com",
		"phone":    "+15550220",
		"password": "pass-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = client.do(http.MethodPost, "/v1/user/register", gin.H{"email": "frozen@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = client.do(http.MethodPost, "/v1/user/login", gin.H{
		"email": "frozen@example.com", "password": "pass-word-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var accountID string
	for id := range store.Accounts {
		accountID = id
	}
	store.SetRoleActive(accountID, models.RoleKindUser, false)

	// Suspension takes effect on the next request, not at token expiry.
	rec = client.do(http.MethodGet, "/v1/user", nil)
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = client.do(http.MethodPost, "/v1/user/login", gin.H{
		"email": "frozen@example.com", "password": "pass-word-1",
	})
	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestUpdateAvatarEndpoint(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	client := newAPIClient(t, router)

	rec := client.do(http.MethodPost, "/v1/account/register", gin.H{
		"name":     "Pic Person",
		"email":    "pic@example.com",
		"phone":    "+15550230",
		"password": "pass-word-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = client.do(http.MethodPost, "/v1/account/login", gin.H{
		"email": "pic@example.com", "password": "pass-word-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/account/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for name, value := range client.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), "avatarUrl")
}
