// Package admin provides the dashboard-facing CRUD surface: lead listing and
// operator updates, conversation transcripts, aggregate stats and the
// knowledge reload, all behind a static API key.
package admin

import (
	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	apphttp "github.com/AliMahmood99/real-estate-chatbot/internal/http"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
	"github.com/AliMahmood99/real-estate-chatbot/platform/validator"
)

// Module is the admin bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	apiKey  string
}

// NewModule creates and initializes the admin module with all its dependencies.
func NewModule(leads *lead.Service, convs *conversation.Store, base Catalog, cfg config.AdminConfig, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(leads, convs, base, val, log),
		apiKey:  cfg.GetAdminAPIKey(),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "admin"
}

// RegisterRoutes mounts admin routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/admin")
	group.Use(APIKeyMiddleware(m.apiKey))

	group.GET("/dashboard", m.handler.HandleDashboard)
	group.GET("/leads", m.handler.HandleListLeads)
	group.GET("/leads/:leadId", m.handler.HandleGetLead)
	group.PATCH("/leads/:leadId", m.handler.HandleUpdateLead)
	group.GET("/leads/:leadId/conversations", m.handler.HandleListLeadConversations)
	group.GET("/conversations/:conversationId/messages", m.handler.HandleListConversationMessages)
	group.GET("/properties", m.handler.HandleListProperties)
	group.POST("/knowledge/reload", m.handler.HandleReloadKnowledge)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
