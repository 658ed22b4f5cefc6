package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStateOpen     TicketState = "OPEN"
	TicketStateArchived TicketState = "ARCHIVED"
	TicketStateDeleted  TicketState = "DELETED"
)

const (
	ticketNamePrefix = "ticket-"
	ticketNameLayout = "20060102-150405"
)

// Ticket is a private support thread owned by exactly one requester.
type Ticket struct {
	// ID is the platform thread id.
	ID string
	// GuildID is the workspace the ticket belongs to.
	GuildID string
	// ChannelID is the text channel the thread lives under.
	ChannelID   string
	RequesterID string
	// Name is the thread name. It encodes RequesterID for legacy lookups
	// but is not the source of truth for ownership.
	Name      string
	State     TicketState
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	DeletedAt *time.Time
}

// Archived reports whether the ticket is closed but reopenable.
func (t *Ticket) Archived() bool {
	return t.State == TicketStateArchived
}

// Deleted reports whether the ticket reached its terminal state.
func (t *Ticket) Deleted() bool {
	return t.State == TicketStateDeleted
}

// Live reports whether the ticket still counts as the requester's ticket.
func (t *Ticket) Live() bool {
	return t.State != TicketStateDeleted
}

var allowedTransitions = map[TicketState][]TicketState{
	TicketStateOpen:     {TicketStateArchived, TicketStateDeleted},
	TicketStateArchived: {TicketStateOpen, TicketStateDeleted},
	TicketStateDeleted:  {},
}

// CanTransition reports whether current -> next is a legal lifecycle step.
func CanTransition(current, next TicketState) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TicketName builds the thread name for a requester. The timestamp keeps
// names unique across rapid close/delete/recreate cycles.
func TicketName(requesterID string, createdAt time.Time) string {
	return fmt.Sprintf("%s%s-%s", ticketNamePrefix, requesterID, createdAt.Format(ticketNameLayout))
}

// RequesterFromName extracts the requester id encoded in a thread name.
func RequesterFromName(name string) (string, bool) {
	if !strings.HasPrefix(name, ticketNamePrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(name, ticketNamePrefix)
	id, _, _ := strings.Cut(rest, "-")
	if id == "" || !isDigits(id) {
		return "", false
	}
	return id, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
