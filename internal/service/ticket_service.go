package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/access"
	"github.com/spec-kit/ticket-bot/internal/configstore"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/lock"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/repository"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

const maxReasonLength = 1000

// OpenOutcome says what OpenTicket did.
type OpenOutcome string

const (
	OpenCreated     OpenOutcome = "created"
	OpenReopened    OpenOutcome = "reopened"
	OpenAlreadyOpen OpenOutcome = "already_open"
)

// OpenResult carries the requester's ticket. It is also returned alongside an
// AlreadyOpen error so callers can point at the existing thread.
type OpenResult struct {
	Ticket  *domain.Ticket
	Outcome OpenOutcome
}

// TicketDetails is a ticket plus its audit history.
type TicketDetails struct {
	Ticket  *domain.Ticket
	History []domain.TicketEvent
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketEventRepository
	configs    configstore.Store
	gateway    gateway.Gateway
	locker     lock.Locker
	access     *access.Resolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketEventRepository
	Configs     configstore.Store
	Gateway     gateway.Gateway
	Locker      lock.Locker
	Access      *access.Resolver
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		configs:    deps.Configs,
		gateway:    deps.Gateway,
		locker:     deps.Locker,
		access:     deps.Access,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.locker == nil {
		s.locker = lock.NewMemoryLocker()
	}
	if s.access == nil {
		s.access = access.NewResolver(nil)
	}
	return s
}

// OpenTicket creates the requester's ticket, reopens their archived one, or
// reports the one that is already open.
func (s *TicketService) OpenTicket(ctx context.Context, actor domain.Actor, guildID, reason string) (result *OpenResult, err error) {
	defer func() { s.recordFailure("open_ticket", err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason is required", nil)
	}
	if len(reason) > maxReasonLength {
		return nil, apperrors.NewValidationError("reason is too long", map[string]any{"max_length": maxReasonLength})
	}

	cfg := s.configs.Get(ctx, guildID)
	if !cfg.Configured() {
		return nil, apperrors.NewNotConfigured()
	}
	if _, err := s.resolveChannel(ctx, cfg.CategoryID, apperrors.NewCategoryMissing, "resolve ticket category"); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, lock.CreationKey(guildID, actor.ID))
	if err != nil {
		s.logger.Error("creation lock unavailable",
			zap.String("guild_id", guildID), zap.String("requester_id", actor.ID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	defer release()

	existing, err := s.findLiveTicket(ctx, guildID, actor.ID, cfg)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Archived() {
			return &OpenResult{Ticket: existing, Outcome: OpenAlreadyOpen}, apperrors.NewAlreadyOpen(existing.ID)
		}
		if err := s.reopen(ctx, actor, existing, reason); err != nil {
			return nil, err
		}
		return &OpenResult{Ticket: existing, Outcome: OpenReopened}, nil
	}

	ticket, err := s.create(ctx, actor, guildID, cfg, reason)
	if errors.Is(err, apperrors.ErrAlreadyOpen) && ticket != nil {
		return &OpenResult{Ticket: ticket, Outcome: OpenAlreadyOpen}, err
	}
	if err != nil {
		return nil, err
	}
	return &OpenResult{Ticket: ticket, Outcome: OpenCreated}, nil
}

// ManageTicket closes or deletes a ticket on behalf of actor.
func (s *TicketService) ManageTicket(ctx context.Context, actor domain.Actor, guildID, ticketID string, action domain.Action) (ticket *domain.Ticket, err error) {
	defer func() { s.recordFailure(string(action), err) }()

	if action != domain.ActionCloseTicket && action != domain.ActionDeleteTicket {
		return nil, apperrors.NewValidationError("unsupported ticket action", map[string]any{"action": action})
	}

	cfg := s.configs.Get(ctx, guildID)
	if !cfg.Configured() {
		return nil, apperrors.NewNotConfigured()
	}
	ticket, err = s.resolveTicket(ctx, guildID, ticketID, cfg)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		// The thread is gone and was never indexed.
		if action == domain.ActionDeleteTicket {
			return &domain.Ticket{ID: ticketID, GuildID: guildID, State: domain.TicketStateDeleted}, nil
		}
		return nil, apperrors.NewTicketDeleted(ticketID)
	}

	if !s.access.Authorize(actor, ticket, cfg, action) {
		return nil, apperrors.NewForbidden()
	}

	if action == domain.ActionDeleteTicket {
		return ticket, s.delete(ctx, actor, ticket)
	}
	return ticket, s.close(ctx, actor, ticket)
}

// AddMember adds target to the open ticket thread channelID.
func (s *TicketService) AddMember(ctx context.Context, actor domain.Actor, guildID, channelID, targetID string) (ticket *domain.Ticket, err error) {
	defer func() { s.recordFailure("add_member", err) }()

	if strings.TrimSpace(targetID) == "" {
		return nil, apperrors.NewValidationError("user is required", nil)
	}

	cfg := s.configs.Get(ctx, guildID)
	if !cfg.Configured() {
		return nil, apperrors.NewNotConfigured()
	}
	ticket, err = s.resolveTicket(ctx, guildID, channelID, cfg)
	if err != nil {
		return nil, err
	}
	switch {
	case ticket == nil:
		return nil, apperrors.NewNotAThread(channelID)
	case ticket.Deleted():
		return nil, apperrors.NewTicketDeleted(ticket.ID)
	case ticket.Archived():
		return nil, apperrors.NewTicketArchived(ticket.ID)
	}

	if !s.access.Authorize(actor, ticket, cfg, domain.ActionAddMember) {
		return nil, apperrors.NewForbidden()
	}

	members, err := s.gateway.ThreadMemberIDs(ctx, ticket.ID)
	if errors.Is(err, gateway.ErrNotFound) {
		s.markVanished(ctx, ticket)
		return nil, apperrors.NewTicketDeleted(ticket.ID)
	}
	if err != nil {
		return nil, s.platformError("list thread members", ticket.ID, err)
	}
	for _, id := range members {
		if id == targetID {
			return nil, apperrors.NewAlreadyMember(ticket.ID, targetID)
		}
	}

	if err := s.gateway.AddThreadMember(ctx, ticket.ID, targetID); err != nil {
		return nil, s.platformError("add thread member", ticket.ID, err)
	}
	s.bestEffort("post member added notice", ticket.ID,
		s.gateway.SendMessage(ctx, ticket.ID, memberAddedMessage(targetID, actor.ID)))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMemberAdded,
		GuildID:  ticket.GuildID,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketMemberAddedPayload{UserID: targetID},
	})
	return ticket, nil
}

// ListTickets returns indexed tickets matching filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// GetTicket returns an indexed ticket with its audit history.
func (s *TicketService) GetTicket(ctx context.Context, guildID, ticketID string, limit, offset int) (*TicketDetails, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if ticket.GuildID != guildID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	details := &TicketDetails{Ticket: ticket, History: []domain.TicketEvent{}}
	if s.history == nil {
		return details, nil
	}
	history, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	details.History = history
	return details, nil
}

func (s *TicketService) create(ctx context.Context, actor domain.Actor, guildID string, cfg domain.WorkspaceConfig, reason string) (*domain.Ticket, error) {
	channel, err := s.resolveChannel(ctx, cfg.TicketChannelID, apperrors.NewTicketChannelMissing, "resolve ticket channel")
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	name := domain.TicketName(actor.ID, createdAt)
	thread, err := s.gateway.CreatePrivateThread(ctx, channel.ID, name,
		fmt.Sprintf("Ticket created by %s for: %s", actor.ID, reason))
	if err != nil {
		return nil, s.platformError("create ticket thread", channel.ID, err)
	}

	ticket := &domain.Ticket{
		ID:          thread.ID,
		GuildID:     guildID,
		ChannelID:   channel.ID,
		RequesterID: actor.ID,
		Name:        name,
		State:       domain.TicketStateOpen,
		Reason:      reason,
		CreatedAt:   createdAt,
	}

	err = s.tickets.Create(ctx, ticket)
	if errors.Is(err, repository.ErrDuplicate) {
		// Another replica indexed a live ticket for this requester first.
		s.bestEffort("remove duplicate thread", ticket.ID, s.gateway.DeleteChannel(ctx, ticket.ID))
		existing, findErr := s.tickets.FindLiveByRequester(ctx, guildID, actor.ID)
		if findErr != nil {
			return nil, apperrors.NewInternalError(findErr)
		}
		return existing, apperrors.NewAlreadyOpen(existing.ID)
	}
	// The thread exists from here on; later failures must not fail the request.
	s.bestEffort("index ticket", ticket.ID, err)
	s.bestEffort("add requester to thread", ticket.ID, s.gateway.AddThreadMember(ctx, ticket.ID, actor.ID))
	if role := cfg.SupportRole(); role != "" {
		s.bestEffort("notify support role", ticket.ID, s.gateway.SendMessage(ctx, ticket.ID, supportPingMessage(role)))
	}
	s.bestEffort("post ticket embed", ticket.ID, s.gateway.SendMessage(ctx, ticket.ID, ticketEmbedMessage(actor, reason)))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		GuildID:  guildID,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			RequesterID: actor.ID,
			ThreadName:  name,
			Reason:      reason,
		},
	})
	return ticket, nil
}

func (s *TicketService) reopen(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, reason string) error {
	if err := s.gateway.SetThreadArchived(ctx, ticket.ID, false); err != nil {
		return s.platformError("unarchive ticket thread", ticket.ID, err)
	}
	s.bestEffort("post reopen notice", ticket.ID,
		s.gateway.SendMessage(ctx, ticket.ID, reopenedMessage(ticket.RequesterID, reason)))

	ticket.Reason = reason
	if err := s.applyState(ctx, ticket, domain.TicketStateOpen); err != nil {
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReopened,
		GuildID:  ticket.GuildID,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketReopenedPayload{RequesterID: ticket.RequesterID, Reason: reason},
	})
	return nil
}

func (s *TicketService) close(ctx context.Context, actor domain.Actor, ticket *domain.Ticket) error {
	switch {
	case ticket.Deleted():
		return apperrors.NewTicketDeleted(ticket.ID)
	case ticket.Archived():
		return nil
	}

	err := s.gateway.SetThreadArchived(ctx, ticket.ID, true)
	if errors.Is(err, gateway.ErrNotFound) {
		s.markVanished(ctx, ticket)
		return apperrors.NewTicketDeleted(ticket.ID)
	}
	if err != nil {
		return s.platformError("archive ticket thread", ticket.ID, err)
	}

	old := ticket.State
	if err := s.applyState(ctx, ticket, domain.TicketStateArchived); err != nil {
		return err
	}
	s.publishStateChange(ctx, events.EventTicketClosed, actor, ticket, old)
	return nil
}

func (s *TicketService) delete(ctx context.Context, actor domain.Actor, ticket *domain.Ticket) error {
	if ticket.Deleted() {
		return nil
	}

	err := s.gateway.DeleteChannel(ctx, ticket.ID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		return s.platformError("delete ticket thread", ticket.ID, err)
	}

	old := ticket.State
	if err := s.applyState(ctx, ticket, domain.TicketStateDeleted); err != nil {
		return err
	}
	s.publishStateChange(ctx, events.EventTicketDeleted, actor, ticket, old)
	return nil
}

// findLiveTicket looks the requester up in the index first and falls back to
// scanning thread names under the ticket channel.
func (s *TicketService) findLiveTicket(ctx context.Context, guildID, requesterID string, cfg domain.WorkspaceConfig) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindLiveByRequester(ctx, guildID, requesterID)
	switch {
	case err == nil:
		thread, err := s.gateway.Channel(ctx, ticket.ID)
		if errors.Is(err, gateway.ErrNotFound) {
			s.markVanished(ctx, ticket)
			break
		}
		if err != nil {
			return nil, s.platformError("resolve ticket thread", ticket.ID, err)
		}
		s.syncArchived(ctx, ticket, thread)
		return ticket, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewInternalError(err)
	}

	threads, err := s.gateway.ListThreads(ctx, guildID, cfg.TicketChannelID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, apperrors.NewTicketChannelMissing(cfg.TicketChannelID)
	}
	if err != nil {
		return nil, s.platformError("list ticket threads", cfg.TicketChannelID, err)
	}

	var found *gateway.Channel
	for i := range threads {
		thread := &threads[i]
		owner, ok := domain.RequesterFromName(thread.Name)
		if !ok || owner != requesterID {
			continue
		}
		if found == nil || betterCandidate(thread, found) {
			found = thread
		}
	}
	if found == nil {
		return nil, nil
	}

	ticket = s.ticketFromThread(guildID, found, requesterID)
	s.bestEffort("index discovered ticket", ticket.ID, s.tickets.Create(ctx, ticket))
	return ticket, nil
}

// betterCandidate prefers open threads, then the most recently created.
func betterCandidate(candidate, current *gateway.Channel) bool {
	if candidate.Archived != current.Archived {
		return !candidate.Archived
	}
	return candidate.CreatedAt.After(current.CreatedAt)
}

// resolveTicket finds a ticket by thread id. It returns nil, nil when the
// thread is neither indexed nor present on the platform.
func (s *TicketService) resolveTicket(ctx context.Context, guildID, threadID string, cfg domain.WorkspaceConfig) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, threadID)
	if err == nil {
		if ticket.GuildID != guildID {
			return nil, apperrors.NewNotAThread(threadID)
		}
		return ticket, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	thread, err := s.gateway.Channel(ctx, threadID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.platformError("resolve thread", threadID, err)
	}
	if !thread.IsThread() || thread.GuildID != guildID {
		return nil, apperrors.NewNotAThread(threadID)
	}
	if cfg.TicketChannelID != "" && thread.ParentID != cfg.TicketChannelID {
		return nil, apperrors.NewNotAThread(threadID)
	}
	requesterID, ok := domain.RequesterFromName(thread.Name)
	if !ok {
		return nil, apperrors.NewNotAThread(threadID)
	}

	ticket = s.ticketFromThread(guildID, thread, requesterID)
	s.bestEffort("index discovered ticket", ticket.ID, s.tickets.Create(ctx, ticket))
	return ticket, nil
}

func (s *TicketService) ticketFromThread(guildID string, thread *gateway.Channel, requesterID string) *domain.Ticket {
	createdAt := thread.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	state := domain.TicketStateOpen
	if thread.Archived {
		state = domain.TicketStateArchived
	}
	return &domain.Ticket{
		ID:          thread.ID,
		GuildID:     guildID,
		ChannelID:   thread.ParentID,
		RequesterID: requesterID,
		Name:        thread.Name,
		State:       state,
		CreatedAt:   createdAt,
	}
}

// syncArchived follows archive changes made directly on the platform.
func (s *TicketService) syncArchived(ctx context.Context, ticket *domain.Ticket, thread *gateway.Channel) {
	switch {
	case thread.Archived && ticket.State == domain.TicketStateOpen:
		_ = s.applyState(ctx, ticket, domain.TicketStateArchived)
	case !thread.Archived && ticket.State == domain.TicketStateArchived:
		_ = s.applyState(ctx, ticket, domain.TicketStateOpen)
	}
}

// markVanished retires an indexed ticket whose thread no longer exists.
func (s *TicketService) markVanished(ctx context.Context, ticket *domain.Ticket) {
	s.logger.Warn("indexed ticket thread vanished",
		zap.String("ticket_id", ticket.ID), zap.String("requester_id", ticket.RequesterID))
	_ = s.applyState(ctx, ticket, domain.TicketStateDeleted)
}

// applyState moves ticket to next and persists it. Index write failures are
// logged only: the platform already reflects the change.
func (s *TicketService) applyState(ctx context.Context, ticket *domain.Ticket, next domain.TicketState) error {
	if !domain.CanTransition(ticket.State, next) {
		if ticket.Deleted() {
			return apperrors.NewTicketDeleted(ticket.ID)
		}
		return apperrors.NewValidationError("illegal ticket transition", map[string]any{
			"from": ticket.State,
			"to":   next,
		})
	}

	now := s.now()
	ticket.State = next
	switch next {
	case domain.TicketStateOpen:
		ticket.ClosedAt = nil
	case domain.TicketStateArchived:
		ticket.ClosedAt = &now
	case domain.TicketStateDeleted:
		ticket.DeletedAt = &now
	}
	s.bestEffort("update ticket index", ticket.ID, s.tickets.Update(ctx, ticket))
	return nil
}

func (s *TicketService) resolveChannel(ctx context.Context, channelID string, missing func(string) error, op string) (*gateway.Channel, error) {
	channel, err := s.gateway.Channel(ctx, channelID)
	switch {
	case err == nil:
		return channel, nil
	case errors.Is(err, gateway.ErrNotFound):
		return nil, missing(channelID)
	default:
		return nil, s.platformError(op, channelID, err)
	}
}

func (s *TicketService) platformError(op, channelID string, err error) error {
	s.logger.Error("platform call failed",
		zap.String("operation", op), zap.String("channel_id", channelID), zap.Error(err))
	return apperrors.NewPlatformUnavailable(op, err)
}

// bestEffort logs a failed side effect and drops it.
func (s *TicketService) bestEffort(op, ticketID string, err error) {
	if err == nil {
		return
	}
	s.logger.Warn("best-effort step failed",
		zap.String("operation", op), zap.String("ticket_id", ticketID), zap.Error(err))
}

func (s *TicketService) recordFailure(op string, err error) {
	if err == nil {
		return
	}
	s.metrics.RecordOperationError(op, apperrors.CodeOf(err))
}

func (s *TicketService) publishStateChange(ctx context.Context, eventType events.EventType, actor domain.Actor, ticket *domain.Ticket, old domain.TicketState) {
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		GuildID:  ticket.GuildID,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStateChangedPayload{
			RequesterID: ticket.RequesterID,
			OldState:    old,
			NewState:    ticket.State,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
