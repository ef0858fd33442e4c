package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	"github.com/AliMahmood99/real-estate-chatbot/internal/knowledge"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/httpkit"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
	"github.com/AliMahmood99/real-estate-chatbot/platform/validator"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
	errInvalidID      = "invalid id"
)

// Catalog is the knowledge view the dashboard reads.
type Catalog interface {
	Projects() []knowledge.Project
	ProjectCount() int
	Reload(ctx context.Context) error
}

// Handler serves the dashboard's read and update surface.
type Handler struct {
	leads *lead.Service
	convs *conversation.Store
	base  Catalog
	val   *validator.Validator
	log   *logger.Logger
}

func NewHandler(leads *lead.Service, convs *conversation.Store, base Catalog, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{leads: leads, convs: convs, base: base, val: val, log: log}
}

// HandleDashboard returns the aggregate counters the dashboard landing page
// shows.
// GET /api/v1/admin/dashboard
func (h *Handler) HandleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	byStatus, err := h.leads.CountByStatus(ctx)
	if httpkit.HandleError(c, err) {
		return
	}
	stats, err := h.leads.Stats(ctx)
	if httpkit.HandleError(c, err) {
		return
	}
	totalConvs, err := h.convs.Count(ctx)
	if httpkit.HandleError(c, err) {
		return
	}

	statusCounts := make(map[string]int, len(byStatus))
	for status, n := range byStatus {
		statusCounts[string(status)] = n
	}
	platformCounts := make(map[string]int, len(stats.ByPlatform))
	for platform, n := range stats.ByPlatform {
		platformCounts[string(platform)] = n
	}
	topProjects := make([]projectCountResponse, 0, len(stats.TopProjects))
	for _, pc := range stats.TopProjects {
		topProjects = append(topProjects, projectCountResponse{Project: pc.Project, Count: pc.Count})
	}
	recent := make([]leadResponse, 0, len(stats.Recent))
	for _, l := range stats.Recent {
		recent = append(recent, toLeadResponse(l))
	}

	httpkit.OK(c, dashboardResponse{
		TotalLeads:         stats.Total,
		LeadsToday:         stats.Today,
		LeadsThisWeek:      stats.ThisWeek,
		LeadsThisMonth:     stats.ThisMonth,
		LeadsByStatus:      statusCounts,
		LeadsByPlatform:    platformCounts,
		TopProjects:        topProjects,
		RecentLeads:        recent,
		TotalConversations: totalConvs,
		KnowledgeProjects:  h.base.ProjectCount(),
	})
}

// HandleListLeads returns a filtered, paginated lead listing.
// GET /api/v1/admin/leads?status=&platform=&from=&to=&limit=&offset=
func (h *Handler) HandleListLeads(c *gin.Context) {
	params := lead.ListParams{
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := lead.Status(status)
		if !s.Valid() {
			httpkit.Error(c, http.StatusBadRequest, "invalid status filter", nil)
			return
		}
		params.Status = s
	}
	if platform := c.Query("platform"); platform != "" {
		p, err := messaging.ParsePlatform(platform)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid platform filter", nil)
			return
		}
		params.Platform = p
	}
	if from, ok, bad := parseTimeQuery(c, "from"); bad {
		return
	} else if ok {
		params.CreatedFrom = &from
	}
	if to, ok, bad := parseTimeQuery(c, "to"); bad {
		return
	} else if ok {
		params.CreatedTo = &to
	}

	leads, total, err := h.leads.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := leadListResponse{
		Leads:  make([]leadResponse, 0, len(leads)),
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	for _, l := range leads {
		resp.Leads = append(resp.Leads, toLeadResponse(l))
	}
	httpkit.OK(c, resp)
}

// HandleGetLead returns one lead.
// GET /api/v1/admin/leads/:leadId
func (h *Handler) HandleGetLead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	l, err := h.leads.Get(c.Request.Context(), id)
	if errors.Is(err, lead.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(l))
}

// HandleUpdateLead applies an operator patch. This is the only path that may
// write notes or set converted/lost.
// PATCH /api/v1/admin/leads/:leadId
func (h *Handler) HandleUpdateLead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	params := lead.UpdateParams{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		BudgetRange: req.BudgetRange,
		Timeline:    req.Timeline,
		Notes:       req.Notes,
	}
	if req.Status != nil {
		status := lead.Status(*req.Status)
		params.Status = &status
	}

	l, err := h.leads.OperatorUpdate(c.Request.Context(), id, params)
	if errors.Is(err, lead.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	h.log.Info("lead updated by operator", "lead_id", id)
	httpkit.OK(c, toLeadResponse(l))
}

// HandleListLeadConversations returns the conversations behind a lead.
// GET /api/v1/admin/leads/:leadId/conversations
func (h *Handler) HandleListLeadConversations(c *gin.Context) {
	id, ok := parseUUIDParam(c, "leadId")
	if !ok {
		return
	}

	l, err := h.leads.Get(c.Request.Context(), id)
	if errors.Is(err, lead.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	convs, err := h.convs.ListByUser(c.Request.Context(), l.Platform, l.ExternalUserID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]conversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, toConversationResponse(conv))
	}
	httpkit.OK(c, gin.H{"conversations": resp})
}

// HandleListConversationMessages returns a conversation transcript page.
// GET /api/v1/admin/conversations/:conversationId/messages?limit=&offset=
func (h *Handler) HandleListConversationMessages(c *gin.Context) {
	id, ok := parseUUIDParam(c, "conversationId")
	if !ok {
		return
	}

	if _, err := h.convs.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			httpkit.Error(c, http.StatusNotFound, "conversation not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := parseIntQuery(c, "offset", 0)

	messages, err := h.convs.ListMessages(c.Request.Context(), id, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, toMessageResponse(m))
	}
	httpkit.OK(c, gin.H{"messages": resp, "limit": limit, "offset": offset})
}

// HandleListProperties returns the property catalog as the dashboard's
// property browser sees it, straight from the in-memory snapshot.
// GET /api/v1/admin/properties
func (h *Handler) HandleListProperties(c *gin.Context) {
	projects := h.base.Projects()
	resp := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	httpkit.OK(c, gin.H{"projects": resp, "total": len(resp)})
}

// HandleReloadKnowledge re-reads the property catalog from the database.
// POST /api/v1/admin/knowledge/reload
func (h *Handler) HandleReloadKnowledge(c *gin.Context) {
	if err := h.base.Reload(c.Request.Context()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "reloaded", "projects": h.base.ProjectCount()})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// parseTimeQuery accepts RFC 3339 timestamps or bare dates (2006-01-02).
// Returns bad=true after writing the error response.
func parseTimeQuery(c *gin.Context, name string) (value time.Time, ok bool, bad bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true, false
	}
	httpkit.Error(c, http.StatusBadRequest, "invalid "+name+" filter", nil)
	return time.Time{}, false, true
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
