package service

import (
	"fmt"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
)

// Persistent component ids. They must survive restarts, so they never change.
const (
	CustomIDCreateTicket = "persistent:create_ticket"
	CustomIDCloseTicket  = "persistent:close_ticket"
	CustomIDDeleteTicket = "persistent:delete_ticket"
	CustomIDTicketModal  = "ticket_modal"
	ModalFieldReason     = "reason"
)

const (
	ColorGreen   = 0x2ecc71
	ColorBlue    = 0x3498db
	ColorBlurple = 0x5865f2
	ColorOrange  = 0xe67e22
	ColorRed     = 0xe74c3c
	ColorSetupOK = 0x0d1627
)

// UserMention renders a user ping.
func UserMention(id string) string { return "<@" + id + ">" }

// RoleMention renders a role ping.
func RoleMention(id string) string { return "<@&" + id + ">" }

// ChannelMention renders a channel link.
func ChannelMention(id string) string { return "<#" + id + ">" }

func ticketEmbedMessage(actor domain.Actor, reason string) gateway.Message {
	return gateway.Message{
		Embed: &gateway.Embed{
			Title:       "Ticket from " + actor.Name(),
			Description: fmt.Sprintf("**Reason:** %s\n\nPlease be patient while waiting for a response.", reason),
			Color:       ColorGreen,
			Footer:      "User ID: " + actor.ID,
		},
		Buttons: []gateway.Button{
			{Label: "Close Ticket", CustomID: CustomIDCloseTicket, Style: gateway.ButtonSuccess},
			{Label: "Delete Ticket", CustomID: CustomIDDeleteTicket, Style: gateway.ButtonDanger},
		},
	}
}

func supportPingMessage(roleID string) gateway.Message {
	return gateway.Message{
		Content:        RoleMention(roleID) + " New ticket created!",
		MentionRoleIDs: []string{roleID},
	}
}

func reopenedMessage(requesterID, reason string) gateway.Message {
	return gateway.Message{
		Content:        fmt.Sprintf("%s Ticket reopened with new reason: %s", UserMention(requesterID), reason),
		MentionUserIDs: []string{requesterID},
	}
}

func memberAddedMessage(targetID, actorID string) gateway.Message {
	return gateway.Message{
		Content: fmt.Sprintf("I have added %s to this ticket by %s.", UserMention(targetID), UserMention(actorID)),
		// Only the added user is pinged; the actor already knows.
		MentionUserIDs: []string{targetID},
	}
}

func entryPointMessage() gateway.Message {
	return gateway.Message{
		Embed: &gateway.Embed{
			Title:       "Need help?",
			Description: "Click the button below to create a new ticket!",
			Color:       ColorBlurple,
		},
		Buttons: []gateway.Button{
			{Label: "Create Ticket", CustomID: CustomIDCreateTicket, Style: gateway.ButtonPrimary},
		},
	}
}

func auditEmbed(title, description string, color int, at time.Time) gateway.Message {
	return gateway.Message{
		Embed: &gateway.Embed{
			Title:       title,
			Description: description,
			Color:       color,
			Timestamp:   at,
		},
	}
}
