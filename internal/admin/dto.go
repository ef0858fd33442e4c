package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	"github.com/AliMahmood99/real-estate-chatbot/internal/knowledge"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
)

type leadResponse struct {
	ID                 uuid.UUID `json:"id"`
	Platform           string    `json:"platform"`
	ExternalUserID     string    `json:"externalUserId"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	Email              *string   `json:"email"`
	BudgetRange        *string   `json:"budgetRange"`
	Timeline           *string   `json:"timeline"`
	PreferredType      *string   `json:"preferredType"`
	PreferredSize      *string   `json:"preferredSize"`
	PaymentPlan        *string   `json:"paymentPlan"`
	InterestedProjects []string  `json:"interestedProjects"`
	Status             string    `json:"status"`
	Notes              *string   `json:"notes"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toLeadResponse(l lead.Lead) leadResponse {
	projects := l.InterestedProjects
	if projects == nil {
		projects = []string{}
	}
	return leadResponse{
		ID:                 l.ID,
		Platform:           string(l.Platform),
		ExternalUserID:     l.ExternalUserID,
		Name:               l.Name,
		Phone:              l.Phone,
		Email:              l.Email,
		BudgetRange:        l.BudgetRange,
		Timeline:           l.Timeline,
		PreferredType:      l.PreferredType,
		PreferredSize:      l.PreferredSize,
		PaymentPlan:        l.PaymentPlan,
		InterestedProjects: projects,
		Status:             string(l.Status),
		Notes:              l.Notes,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

type leadListResponse struct {
	Leads  []leadResponse `json:"leads"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type updateLeadRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone       *string `json:"phone" validate:"omitempty,min=5,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
	BudgetRange *string `json:"budgetRange" validate:"omitempty,max=200"`
	Timeline    *string `json:"timeline" validate:"omitempty,max=200"`
	Status      *string `json:"status" validate:"omitempty,oneof=new hot warm cold converted lost"`
	Notes       *string `json:"notes" validate:"omitempty,max=5000"`
}

type conversationResponse struct {
	ID             uuid.UUID `json:"id"`
	Platform       string    `json:"platform"`
	ExternalUserID string    `json:"externalUserId"`
	StartedAt      time.Time `json:"startedAt"`
	LastMessageAt  time.Time `json:"lastMessageAt"`
	MessageCount   int       `json:"messageCount"`
}

func toConversationResponse(c conversation.Conversation) conversationResponse {
	return conversationResponse{
		ID:             c.ID,
		Platform:       string(c.Platform),
		ExternalUserID: c.ExternalUserID,
		StartedAt:      c.StartedAt,
		LastMessageAt:  c.LastMessageAt,
		MessageCount:   c.MessageCount,
	}
}

type messageResponse struct {
	ID         int64     `json:"id"`
	SenderType string    `json:"senderType"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toMessageResponse(m conversation.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		SenderType: string(m.SenderType),
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

type unitResponse struct {
	ID                 uuid.UUID `json:"id"`
	UnitType           string    `json:"unitType"`
	SizeFrom           *float64  `json:"sizeFrom"`
	SizeTo             *float64  `json:"sizeTo"`
	PriceFrom          *float64  `json:"priceFrom"`
	PriceTo            *float64  `json:"priceTo"`
	FloorOptions       *string   `json:"floorOptions"`
	Views              []string  `json:"views"`
	PaymentPlans       []string  `json:"paymentPlans"`
	AvailabilityStatus string    `json:"availabilityStatus"`
}

type projectResponse struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Developer      string         `json:"developer"`
	Location       string         `json:"location"`
	Area           string         `json:"area"`
	Description    *string        `json:"description"`
	Amenities      []string       `json:"amenities"`
	DeliveryStatus *string        `json:"deliveryStatus"`
	Units          []unitResponse `json:"units"`
}

func toProjectResponse(p knowledge.Project) projectResponse {
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	units := make([]unitResponse, 0, len(p.Units))
	for _, u := range p.Units {
		views := u.Views
		if views == nil {
			views = []string{}
		}
		plans := u.PaymentPlans
		if plans == nil {
			plans = []string{}
		}
		units = append(units, unitResponse{
			ID:                 u.ID,
			UnitType:           u.UnitType,
			SizeFrom:           u.SizeFrom,
			SizeTo:             u.SizeTo,
			PriceFrom:          u.PriceFrom,
			PriceTo:            u.PriceTo,
			FloorOptions:       u.FloorOptions,
			Views:              views,
			PaymentPlans:       plans,
			AvailabilityStatus: u.AvailabilityStatus,
		})
	}
	return projectResponse{
		ID:             p.ID,
		Name:           p.Name,
		Developer:      p.Developer,
		Location:       p.Location,
		Area:           p.Area,
		Description:    p.Description,
		Amenities:      amenities,
		DeliveryStatus: p.DeliveryStatus,
		Units:          units,
	}
}

type projectCountResponse struct {
	Project string `json:"project"`
	Count   int    `json:"count"`
}

type dashboardResponse struct {
	TotalLeads         int                    `json:"totalLeads"`
	LeadsToday         int                    `json:"leadsToday"`
	LeadsThisWeek      int                    `json:"leadsThisWeek"`
	LeadsThisMonth     int                    `json:"leadsThisMonth"`
	LeadsByStatus      map[string]int         `json:"leadsByStatus"`
	LeadsByPlatform    map[string]int         `json:"leadsByPlatform"`
	TopProjects        []projectCountResponse `json:"topProjects"`
	RecentLeads        []leadResponse         `json:"recentLeads"`
	TotalConversations int                    `json:"totalConversations"`
	KnowledgeProjects  int                    `json:"knowledgeProjects"`
}
