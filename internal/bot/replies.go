package bot

import (
	"errors"
	"fmt"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

const (
	msgNotConfigured   = "Ticket system is not set up yet. Ask an admin to run /setup."
	msgCategoryMissing = "Ticket category not found."
	msgChannelMissing  = "Ticket channel not found."
	msgCreateFailed    = "Failed to create ticket."
	msgForbidden       = "❌ not enough permissions."
	msgNotAThread      = "❌ This command is only usable in tickets threads."
	msgTicketArchived  = "❌ This ticket is closed."
	msgTicketDeleted   = "❌ This ticket no longer exists."
	msgAddForbidden    = "❌ I don't have permission to add users to this thread."
	msgAddFailed       = "❌ Failed to add user to the ticket. Please try again later."
	msgManageFailed    = "❌ Failed to update the ticket. Please try again later."
	msgSetupFailed     = "❌ Failed to set up the ticket system. Check my permissions and try again."
	msgSetupDone       = "Ticket system has been set up successfully"
	msgClosed          = "🔒 Ticket closed."
	msgDeleted         = "🗑️ Ticket deleted."
	msgGuildOnly       = "❌ This command only works inside a server."
	msgUnknown         = "Something went wrong. Please try again later."
)

func text(content string) gateway.Message {
	return gateway.Message{Content: content}
}

func openReply(result *service.OpenResult, err error) gateway.Message {
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyOpen) && result != nil && result.Ticket != nil {
			return text("You already have an open ticket: " + service.ChannelMention(result.Ticket.ID))
		}
		if errors.Is(err, apperrors.ErrPlatformUnavailable) {
			return text(msgCreateFailed)
		}
		return errorReply(err)
	}
	if result.Outcome == service.OpenReopened {
		return text("Your existing ticket has been reopened: " + service.ChannelMention(result.Ticket.ID))
	}
	return text("Your ticket has been created: " + service.ChannelMention(result.Ticket.ID))
}

func manageReply(action domain.Action, err error) gateway.Message {
	if err != nil {
		if errors.Is(err, apperrors.ErrPlatformUnavailable) {
			return text(msgManageFailed)
		}
		return errorReply(err)
	}
	if action == domain.ActionDeleteTicket {
		return text(msgDeleted)
	}
	return text(msgClosed)
}

func addMemberReply(targetID string, err error) gateway.Message {
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyMember):
			return text(fmt.Sprintf("🤔 %s is already in this ticket.", service.UserMention(targetID)))
		case errors.Is(err, gateway.ErrForbidden):
			return text(msgAddForbidden)
		case errors.Is(err, apperrors.ErrPlatformUnavailable):
			return text(msgAddFailed)
		}
		return errorReply(err)
	}
	return text(fmt.Sprintf("✅ I have added %s to the ticket.", service.UserMention(targetID)))
}

func setupReply(err error) gateway.Message {
	if err != nil {
		if errors.Is(err, apperrors.ErrPlatformUnavailable) {
			return text(msgSetupFailed)
		}
		return errorReply(err)
	}
	return gateway.Message{Embed: &gateway.Embed{Description: msgSetupDone, Color: service.ColorSetupOK}}
}

// errorReply covers the codes every action shares.
func errorReply(err error) gateway.Message {
	domainErr := apperrors.ToDomainError(err)
	switch domainErr.Code {
	case apperrors.CodeNotConfigured:
		return text(msgNotConfigured)
	case apperrors.CodeCategoryMissing:
		return text(msgCategoryMissing)
	case apperrors.CodeTicketChannelMissing:
		return text(msgChannelMissing)
	case apperrors.CodeForbidden:
		return text(msgForbidden)
	case apperrors.CodeNotAThread:
		return text(msgNotAThread)
	case apperrors.CodeTicketArchived:
		return text(msgTicketArchived)
	case apperrors.CodeTicketDeleted:
		return text(msgTicketDeleted)
	case apperrors.CodeValidationFailed:
		return text("❌ " + domainErr.Message)
	default:
		return text(msgUnknown)
	}
}
