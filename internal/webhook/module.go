// Package webhook provides the inbound message capture bounded context:
// Meta webhook verification, payload normalization, the idempotency guard
// and the handoff into the background pipeline.
package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "github.com/AliMahmood99/real-estate-chatbot/internal/http"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, queue Enqueuer, cfg config.MetaConfig, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, queue, log)
	handler := NewHandler(service, cfg, log)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
// Both routes are public: Meta authenticates the GET handshake with the
// verify token and deliveries are idempotency-guarded rather than signed.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.GET("/webhook", m.handler.Verify)
	ctx.Engine.POST("/webhook", m.handler.Receive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
