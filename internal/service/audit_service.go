package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/configstore"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/repository"
)

// AuditService turns lifecycle events into log channel notices and history
// rows. Every step is best effort: failures are returned to the dispatcher,
// which logs and drops them.
type AuditService struct {
	dispatcher events.Dispatcher
	configs    configstore.Store
	gateway    gateway.Gateway
	history    repository.TicketEventRepository
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AuditDependencies bundles collaborators for the audit service.
type AuditDependencies struct {
	Dispatcher  events.Dispatcher
	Configs     configstore.Store
	Gateway     gateway.Gateway
	HistoryRepo repository.TicketEventRepository
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: deps.Dispatcher,
		configs:    deps.Configs,
		gateway:    deps.Gateway,
		history:    deps.HistoryRepo,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// RegisterHandlers subscribes to every lifecycle event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	events.SubscribeAll(a.dispatcher, a.handle)
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.metrics.RecordTicketEvent(string(event.Type))
	a.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("guild_id", event.GuildID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID))

	return errors.Join(a.postLogEntry(ctx, event), a.recordHistory(ctx, event))
}

func (a *AuditService) postLogEntry(ctx context.Context, event events.Event) error {
	if a.configs == nil || a.gateway == nil {
		return nil
	}
	channelID := a.configs.Get(ctx, event.GuildID).LogChannel()
	if channelID == "" {
		return nil
	}
	msg, ok := auditMessage(event)
	if !ok {
		return nil
	}
	if err := a.gateway.SendMessage(ctx, channelID, msg); err != nil {
		return fmt.Errorf("post audit entry to %s: %w", channelID, err)
	}
	return nil
}

func (a *AuditService) recordHistory(ctx context.Context, event events.Event) error {
	if a.history == nil {
		return nil
	}
	entry := &domain.TicketEvent{
		ID:        event.ID,
		GuildID:   event.GuildID,
		TicketID:  event.TicketID,
		Type:      domain.TicketEventType(event.Type),
		ActorID:   event.ActorID,
		Details:   payloadDetails(event.Payload),
		CreatedAt: event.Timestamp,
	}
	if err := a.history.Create(ctx, entry); err != nil {
		return fmt.Errorf("record ticket event: %w", err)
	}
	return nil
}

func auditMessage(event events.Event) (gateway.Message, bool) {
	thread := ChannelMention(event.TicketID)
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return auditEmbed("Ticket Created",
			fmt.Sprintf("**User:** %s\n**Thread:** %s\n**Reason:** %s", UserMention(payload.RequesterID), thread, payload.Reason),
			ColorGreen, event.Timestamp), true
	case events.TicketReopenedPayload:
		return auditEmbed("Ticket Reopened",
			fmt.Sprintf("**User:** %s\n**Thread:** %s\n**Reason:** %s", UserMention(payload.RequesterID), thread, payload.Reason),
			ColorBlurple, event.Timestamp), true
	case events.TicketStateChangedPayload:
		if event.Type == events.EventTicketDeleted {
			return auditEmbed("Ticket Deleted",
				fmt.Sprintf("**Thread:** %s\n**User:** %s\n**Deleted by:** %s", thread, UserMention(payload.RequesterID), UserMention(event.ActorID)),
				ColorRed, event.Timestamp), true
		}
		return auditEmbed("Ticket Closed",
			fmt.Sprintf("**Thread:** %s\n**User:** %s\n**Closed by:** %s", thread, UserMention(payload.RequesterID), UserMention(event.ActorID)),
			ColorOrange, event.Timestamp), true
	case events.TicketMemberAddedPayload:
		return auditEmbed("User Added to Ticket",
			fmt.Sprintf("**Thread:** %s\n**Added by:** %s\n**User added:** %s", thread, UserMention(event.ActorID), UserMention(payload.UserID)),
			ColorBlue, event.Timestamp), true
	default:
		return gateway.Message{}, false
	}
}

func payloadDetails(payload any) map[string]any {
	details := map[string]any{}
	if payload == nil {
		return details
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return details
	}
	_ = json.Unmarshal(raw, &details)
	return details
}
