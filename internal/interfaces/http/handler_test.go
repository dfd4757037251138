package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/Elish-Ab/qualify-law/internal/infrastructure"
	"github.com/Elish-Ab/qualify-law/internal/repository"
	"github.com/Elish-Ab/qualify-law/internal/usecases"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	router *gin.Engine
	store  *infrastructure.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	store := infrastructure.NewMemoryStore()
	clients := repository.NewClientRepository(store, log)
	leads := repository.NewLeadRepository(store, nil, log)
	auth := usecases.NewAuthUsecase(clients, "admin@portal.example", "admin-secret", log)
	middleware := NewMiddleware("test-secret", log)
	handler := NewHandler(leads, clients, auth, log)

	router := gin.New()
	SetupRoutes(router, handler, middleware)
	return &fixture{router: router, store: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// register creates a tenant user and returns its session cookie.
func (f *fixture) register(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/register", gin.H{
		"name": "Ada", "email": email, "password": "hunter2x", "clientName": "Acme Law",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return f.login(t, "/api/auth/login", email, "hunter2x")
}

func (f *fixture) login(t *testing.T, path, email, password string) *http.Cookie {
	t.Helper()
	w := f.do(t, http.MethodPost, path, gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "hunter2x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestLoginValidationError(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "not-an-email", "password": "hunter2x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada@example.com")

	w := f.do(t, http.MethodPost, "/api/register", gin.H{
		"name": "Other", "email": "ada@example.com", "password": "different8", "clientName": "Bravo Legal",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLeadLifecycle(t *testing.T) {
	f := newFixture(t)
	cookie := f.register(t, "ada@example.com")

	// Create.
	w := f.do(t, http.MethodPost, "/api/leads", gin.H{
		"firstName": "John", "lastName": "Smith", "email": "john@client.example",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var created entities.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, entities.StatusUnqualified, created.Status)
	assert.Equal(t, entities.SourceForm, created.Source)

	// List.
	w = f.do(t, http.MethodGet, "/api/leads", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []entities.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	// Fetch one.
	w = f.do(t, http.MethodGet, "/api/leads/"+created.ID, nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	// Patch.
	w = f.do(t, http.MethodPatch, "/api/leads/"+created.ID, gin.H{"status": "Warm Lead"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var patched entities.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patched))
	assert.Equal(t, entities.StatusWarmLead, patched.Status)
	assert.Equal(t, "John", patched.FirstName)
}

func TestLeadEndpointsRequireSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/leads", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "John"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLeadHiddenAcrossTenants(t *testing.T) {
	f := newFixture(t)
	cookieA := f.register(t, "ada@example.com")
	cookieB := f.register(t, "bob@example.com")

	w := f.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "John"}, cookieA)
	require.Equal(t, http.StatusCreated, w.Code)
	var created entities.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// The other tenant cannot read or patch it, and cannot tell it exists.
	w = f.do(t, http.MethodGet, "/api/leads/"+created.ID, nil, cookieB)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPatch, "/api/leads/"+created.ID, gin.H{"status": "Archived"}, cookieB)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/leads", nil, cookieB)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []entities.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestImportLeads(t *testing.T) {
	f := newFixture(t)
	cookie := f.register(t, "ada@example.com")

	rows := []map[string]string{
		{"First Name": "John", "Last Name": "Smith", "Email": "john@client.example"},
		{"firstName": "Jane", "phone": "555-0101"},
	}
	w := f.do(t, http.MethodPost, "/api/leads/import", rows, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"created":2`)

	w = f.do(t, http.MethodGet, "/api/leads", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []entities.Lead
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	for _, lead := range listed {
		assert.Equal(t, entities.SourceCSVImport, lead.Source)
	}
}

func TestMeAndProfileUpdate(t *testing.T) {
	f := newFixture(t)
	cookie := f.register(t, "ada@example.com")

	w := f.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")

	w = f.do(t, http.MethodPatch, "/api/me", gin.H{"name": "Ada L.", "phone": "555-0199"}, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	f := newFixture(t)
	clientCookie := f.register(t, "ada@example.com")
	adminCookie := f.login(t, "/api/auth/admin-login", "admin@portal.example", "admin-secret")

	// Seed a lead for the stats.
	w := f.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "John", "score": "Hot"}, clientCookie)
	require.Equal(t, http.StatusCreated, w.Code)

	// Tenants are shut out.
	w = f.do(t, http.MethodGet, "/api/admin/clients", nil, clientCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin sees the per-client overview.
	w = f.do(t, http.MethodGet, "/api/admin/clients", nil, adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	var clients []entities.ClientWithStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Law", clients[0].Name)
	assert.Equal(t, entities.LeadStats{Total: 1, Hot: 1}, clients[0].LeadStats)

	// Client detail.
	w = f.do(t, http.MethodGet, "/api/admin/clients/"+clients[0].ID, nil, adminCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/api/admin/clients/recNope", nil, adminCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Global stats.
	w = f.do(t, http.MethodGet, "/api/admin/leads/stats", nil, adminCookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t)
	cookie := f.register(t, "ada@example.com")

	w := f.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestSearchWithControlCharactersIsRejected(t *testing.T) {
	f := newFixture(t)
	cookie := f.register(t, "ada@example.com")

	w := f.do(t, http.MethodGet, "/api/leads?search=%00smith", nil, cookie)
	// The null byte is stripped by input sanitation; the query still runs.
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardPage(t *testing.T) {
	f := newFixture(t)
	cookie := f.register(t, "ada@example.com")

	w := f.do(t, http.MethodPost, "/api/leads", gin.H{"firstName": "John", "score": "Warm"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Law")
	assert.Contains(t, w.Body.String(), `"warm":1`)
}
