package domain

import "slices"

// Action enumerates the operations an interaction or API call can request.
type Action string

const (
	ActionOpenTicket   Action = "open_ticket"
	ActionCloseTicket  Action = "close_ticket"
	ActionDeleteTicket Action = "delete_ticket"
	ActionAddMember    Action = "add_member"
	ActionSetup        Action = "setup"
)

// Actor is whoever issues a request. It is derived per request and never persisted.
type Actor struct {
	ID          string
	DisplayName string
	RoleIDs     []string
	IsAdmin     bool
}

// HasRole reports whether the actor carries roleID.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	return slices.Contains(a.RoleIDs, roleID)
}

// Name returns a printable name for messages.
func (a Actor) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.ID
}
