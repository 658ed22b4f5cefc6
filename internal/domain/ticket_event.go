package domain

import "time"

// TicketEventType captures which lifecycle step an audit entry records.
type TicketEventType string

const (
	TicketEventCreated     TicketEventType = "ticket_created"
	TicketEventReopened    TicketEventType = "ticket_reopened"
	TicketEventClosed      TicketEventType = "ticket_closed"
	TicketEventDeleted     TicketEventType = "ticket_deleted"
	TicketEventMemberAdded TicketEventType = "ticket_member_added"
)

// TicketEvent is an immutable audit trail entry.
type TicketEvent struct {
	ID        string
	GuildID   string
	TicketID  string
	Type      TicketEventType
	ActorID   string
	Details   map[string]any
	CreatedAt time.Time
}
