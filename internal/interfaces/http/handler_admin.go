package http

import (
	"net/http"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/Elish-Ab/qualify-law/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	clients *repository.ClientRepository
	leads   *repository.LeadRepository
	log     *zap.SugaredLogger
}

func NewAdminHandler(clients *repository.ClientRepository, leads *repository.LeadRepository, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{clients: clients, leads: leads, log: log}
}

// ListClients returns every client with its lead score breakdown.
func (h *AdminHandler) ListClients(c *gin.Context) {
	clients, err := h.clients.ListClientsWithLeadStats(c.Request.Context())
	if err != nil {
		h.log.Errorw("admin client listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch clients"})
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *AdminHandler) GetClient(c *gin.Context) {
	client, err := h.clients.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Errorw("admin client fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	c.JSON(http.StatusOK, client)
}

// LeadStats reports the score breakdown across every tenant.
func (h *AdminHandler) LeadStats(c *gin.Context) {
	leads, err := h.leads.ListAll(c.Request.Context())
	if err != nil {
		h.log.Errorw("admin lead stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
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
	c.JSON(http.StatusOK, stats)
}
