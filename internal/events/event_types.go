package events

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = EventType(domain.TicketEventCreated)
	EventTicketReopened    EventType = EventType(domain.TicketEventReopened)
	EventTicketClosed      EventType = EventType(domain.TicketEventClosed)
	EventTicketDeleted     EventType = EventType(domain.TicketEventDeleted)
	EventTicketMemberAdded EventType = EventType(domain.TicketEventMemberAdded)
)

// AllEventTypes lists every lifecycle event, for subscribers that want them all.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketReopened,
	EventTicketClosed,
	EventTicketDeleted,
	EventTicketMemberAdded,
}

// Event represents a lifecycle event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	GuildID   string    `json:"guild_id"`
	TicketID  string    `json:"ticket_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequesterID string `json:"requester_id"`
	ThreadName  string `json:"thread_name"`
	Reason      string `json:"reason"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	RequesterID string `json:"requester_id"`
	Reason      string `json:"reason"`
}

// TicketStateChangedPayload is shared by close and delete.
type TicketStateChangedPayload struct {
	RequesterID string             `json:"requester_id"`
	OldState    domain.TicketState `json:"old_state"`
	NewState    domain.TicketState `json:"new_state"`
}

// TicketMemberAddedPayload payload.
type TicketMemberAddedPayload struct {
	UserID string `json:"user_id"`
}
