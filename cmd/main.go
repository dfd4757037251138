package main

import (
	"context"

	"github.com/Elish-Ab/qualify-law/internal/config"
	"github.com/Elish-Ab/qualify-law/internal/infrastructure"
	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	httpapi "github.com/Elish-Ab/qualify-law/internal/interfaces/http"
	"github.com/Elish-Ab/qualify-law/internal/repository"
	"github.com/Elish-Ab/qualify-law/internal/usecases"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger()
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	var store interfaces.RecordStore
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := infrastructure.NewPostgresStore(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Fatalw("connect postgres", "error", err)
		}
		defer pg.Close()
		store = pg
	case "memory":
		store = infrastructure.NewMemoryStore()
	case "airtable":
		if cfg.AirtableAPIKey == "" {
			log.Fatal("AIRTABLE_API_KEY is required for the airtable backend")
		}
		store = infrastructure.NewAirtableStore(cfg.AirtableBaseURL, cfg.AirtableAPIKey, log)
	default:
		log.Fatalw("unknown store backend", "backend", cfg.StoreBackend)
	}

	var sinks infrastructure.FanoutNotifier
	if cfg.WebhookURL != "" {
		webhook := infrastructure.NewWebhookNotifier(cfg.WebhookURL, log)
		defer webhook.Close()
		sinks = append(sinks, webhook)
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		sinks = append(sinks, infrastructure.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, log))
	}
	var notifier interfaces.Notifier
	if len(sinks) > 0 {
		notifier = sinks
	}

	clientRepo := repository.NewClientRepository(store, log)
	leadRepo := repository.NewLeadRepository(store, notifier, log)
	authUsecase := usecases.NewAuthUsecase(clientRepo, cfg.AdminEmail, cfg.AdminPassword, log)
	middleware := httpapi.NewMiddleware(cfg.JWTSecret, log)
	handler := httpapi.NewHandler(leadRepo, clientRepo, authUsecase, log)

	r := gin.Default()
	httpapi.SetupRoutes(r, handler, middleware)

	log.Infow("starting server", "addr", cfg.ServerAddr, "backend", cfg.StoreBackend)
	if err := r.Run(cfg.ServerAddr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
