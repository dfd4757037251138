package http

import (
	"errors"
	"net/http"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/Elish-Ab/qualify-law/internal/query"
	"github.com/Elish-Ab/qualify-law/internal/repository"
	"github.com/Elish-Ab/qualify-law/internal/usecases"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	leads   *repository.LeadRepository
	clients *repository.ClientRepository
	auth    *usecases.AuthUsecase
	log     *zap.SugaredLogger
}

func NewHandler(leads *repository.LeadRepository, clients *repository.ClientRepository, auth *usecases.AuthUsecase, log *zap.SugaredLogger) *Handler {
	return &Handler{leads: leads, clients: clients, auth: auth, log: log}
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware) {
	adminHandler := NewAdminHandler(h.clients, h.leads, h.log)

	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.PageGuard())

	// Public pages. The real markup ships from the frontend; these anchors
	// exist so the guard has concrete targets.
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"page": "home"}) })
	r.GET("/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"page": "login"}) })
	r.GET("/admin/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"page": "admin-login"}) })

	// Guarded pages.
	r.GET("/dashboard", h.DashboardPage)
	r.GET("/leads", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"page": "leads"}) })
	r.GET("/settings", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"page": "settings"}) })
	r.GET("/admin", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"page": "admin"}) })

	r.GET("/api/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.RateLimitLogin(5, 10))
	{
		authGroup.POST("/login", h.Login(usecases.ProviderClient, middleware))
		authGroup.POST("/admin-login", h.Login(usecases.ProviderAdmin, middleware))
		authGroup.POST("/logout", func(c *gin.Context) {
			middleware.ClearSession(c)
			c.JSON(http.StatusOK, gin.H{"status": "logged out"})
		})
	}
	r.POST("/api/register", middleware.RateLimitLogin(5, 10), h.Register)

	// Protected tenant API
	api := r.Group("/api")
	api.Use(middleware.SessionRequired())
	{
		api.GET("/me", h.Me)
		api.PATCH("/me", h.UpdateProfile)

		api.GET("/leads", h.ListLeads)
		api.POST("/leads", h.CreateLead)
		api.GET("/leads/:id", h.GetLead)
		api.PATCH("/leads/:id", h.UpdateLead)
		api.POST("/leads/import", h.ImportLeads)
	}

	// Admin-only Routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.SessionRequired())
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/clients", adminHandler.ListClients)
		admin.GET("/clients/:id", adminHandler.GetClient)
		admin.GET("/leads/stats", adminHandler.LeadStats)
	}
}

// Login returns a handler for one credential provider.
func (h *Handler) Login(provider string, middleware *Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		principal, err := h.auth.Login(c.Request.Context(), provider, payload.Email, payload.Password)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if err := middleware.IssueSession(c, *principal); err != nil {
			h.log.Errorw("session issue failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}
		c.JSON(http.StatusOK, principal)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var payload struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		ClientName string `json:"clientName"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	_, err := h.auth.Register(c.Request.Context(), payload.Name, payload.Email, payload.Password, payload.ClientName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, PrincipalFromContext(c))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	principal := PrincipalFromContext(c)

	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.clients.UpdateProfile(c.Request.Context(), principal.Email,
		SanitizeString(payload.Name), SanitizeString(payload.Phone)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ListLeads(c *gin.Context) {
	principal := PrincipalFromContext(c)

	filter := query.LeadFilter{
		Search: TruncateString(SanitizeString(c.Query("search")), MaxSearchLength),
		Status: c.Query("status"),
		Score:  c.Query("score"),
	}
	leads, err := h.leads.ListByTenant(c.Request.Context(), principal.ClientID, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

func (h *Handler) CreateLead(c *gin.Context) {
	principal := PrincipalFromContext(c)

	var draft entities.LeadDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sanitizeDraft(&draft)

	lead, err := h.leads.Create(c.Request.Context(), principal.ClientID, draft)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *Handler) GetLead(c *gin.Context) {
	principal := PrincipalFromContext(c)

	lead, err := h.leads.GetByID(c.Request.Context(), c.Param("id"), principal.ClientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *Handler) UpdateLead(c *gin.Context) {
	principal := PrincipalFromContext(c)

	var patch entities.LeadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	lead, err := h.leads.Update(c.Request.Context(), c.Param("id"), principal.ClientID, patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// ImportLeads creates a batch of leads from parsed CSV rows. Column naming
// in the wild is inconsistent, so a few header aliases are accepted per
// field.
func (h *Handler) ImportLeads(c *gin.Context) {
	principal := PrincipalFromContext(c)

	var rows []map[string]string
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	created := 0
	for _, row := range rows {
		draft := entities.LeadDraft{
			FirstName: pickColumn(row, "firstName", "FirstName", "First Name"),
			LastName:  pickColumn(row, "lastName", "LastName", "Last Name"),
			Email:     pickColumn(row, "email", "Email"),
			Phone:     pickColumn(row, "phone", "Phone"),
			Message:   pickColumn(row, "message", "Message"),
			Source:    entities.SourceCSVImport,
			Status:    entities.StatusUnqualified,
		}
		sanitizeDraft(&draft)

		if _, err := h.leads.Create(c.Request.Context(), principal.ClientID, draft); err != nil {
			h.log.Errorw("lead import aborted", "created", created, "error", err)
			h.respondError(c, err)
			return
		}
		created++
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// DashboardPage summarizes the tenant's pipeline for the dashboard shell.
func (h *Handler) DashboardPage(c *gin.Context) {
	principal := PrincipalFromContext(c)

	leads, err := h.leads.ListByTenant(c.Request.Context(), principal.ClientID, query.LeadFilter{})
	if err != nil {
		h.respondError(c, err)
		return
	}

	stats := entities.LeadStats{Total: len(leads)}
	for _, lead := range leads {
		switch lead.Score {
		case entities.ScoreHot:
			stats.Hot++
		case entities.ScoreWarm:
			stats.Warm++
		case entities.ScoreCold:
			stats.Cold++
		}
	}
	c.JSON(http.StatusOK, gin.H{"page": "dashboard", "clientName": principal.ClientName, "stats": stats})
}

func pickColumn(row map[string]string, names ...string) string {
	for _, name := range names {
		if v := row[name]; v != "" {
			return v
		}
	}
	return ""
}

func sanitizeDraft(d *entities.LeadDraft) {
	d.FirstName = TruncateString(SanitizeString(d.FirstName), MaxNameLength)
	d.LastName = TruncateString(SanitizeString(d.LastName), MaxNameLength)
	d.Email = TruncateString(SanitizeString(d.Email), MaxNameLength)
	d.Phone = TruncateString(SanitizeString(d.Phone), MaxNameLength)
	d.Message = TruncateString(SanitizeString(d.Message), MaxMessageLength)
	d.ScoringReason = TruncateString(SanitizeString(d.ScoringReason), MaxMessageLength)
	d.VoicemailSummary = TruncateString(SanitizeString(d.VoicemailSummary), MaxMessageLength)
}

// respondError maps domain errors onto HTTP statuses. Store internals never
// reach the response body; they are already logged where they happened.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entities.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entities.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, entities.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
	case errors.Is(err, query.ErrMissingTenant):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tenant scope"})
	case errors.Is(err, query.ErrUnsafe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported characters in filter"})
	default:
		h.log.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
