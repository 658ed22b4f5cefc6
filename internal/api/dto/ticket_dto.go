package dto

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// TicketListQuery captures query filters for operator listing.
type TicketListQuery struct {
	States      []domain.TicketState
	RequesterID *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// TicketSummary response.
type TicketSummary struct {
	ID          string             `json:"id"`
	GuildID     string             `json:"guild_id"`
	ChannelID   string             `json:"channel_id"`
	RequesterID string             `json:"requester_id"`
	Name        string             `json:"name"`
	State       domain.TicketState `json:"state"`
	Reason      string             `json:"reason"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	ClosedAt    *time.Time         `json:"closed_at"`
	DeletedAt   *time.Time         `json:"deleted_at"`
}

// TicketDetailResponse adds the audit history.
type TicketDetailResponse struct {
	TicketSummary
	History []TicketEventResponse `json:"history"`
}

// TicketEventResponse is one audit entry.
type TicketEventResponse struct {
	ID        string                 `json:"id"`
	Type      domain.TicketEventType `json:"type"`
	ActorID   string                 `json:"actor_id"`
	Details   map[string]any         `json:"details"`
	CreatedAt time.Time              `json:"created_at"`
}

// AddMemberRequest payload.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// TicketSummaryFrom maps a domain ticket.
func TicketSummaryFrom(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          ticket.ID,
		GuildID:     ticket.GuildID,
		ChannelID:   ticket.ChannelID,
		RequesterID: ticket.RequesterID,
		Name:        ticket.Name,
		State:       ticket.State,
		Reason:      ticket.Reason,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ClosedAt:    ticket.ClosedAt,
		DeletedAt:   ticket.DeletedAt,
	}
}

// TicketDetailFrom maps a ticket and its history.
func TicketDetailFrom(ticket *domain.Ticket, history []domain.TicketEvent) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketSummary: TicketSummaryFrom(ticket),
		History:       make([]TicketEventResponse, 0, len(history)),
	}
	for _, event := range history {
		resp.History = append(resp.History, TicketEventResponse{
			ID:        event.ID,
			Type:      event.Type,
			ActorID:   event.ActorID,
			Details:   event.Details,
			CreatedAt: event.CreatedAt,
		})
	}
	return resp
}
