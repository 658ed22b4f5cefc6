package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// TicketOperations is the ticket service surface the router drives.
type TicketOperations interface {
	OpenTicket(ctx context.Context, actor domain.Actor, guildID, reason string) (*service.OpenResult, error)
	ManageTicket(ctx context.Context, actor domain.Actor, guildID, ticketID string, action domain.Action) (*domain.Ticket, error)
	AddMember(ctx context.Context, actor domain.Actor, guildID, channelID, targetID string) (*domain.Ticket, error)
}

// SetupOperations is the setup service surface the router drives.
type SetupOperations interface {
	Setup(ctx context.Context, actor domain.Actor, guildID string, input service.SetupInput) (*service.SetupResult, error)
}

// followupTimeout bounds the follow-up send, which runs after the action's
// own deadline may already have passed.
const followupTimeout = 10 * time.Second

// Router answers interactions immediately and runs ticket actions in the
// background, reporting back through follow-up messages.
type Router struct {
	tickets TicketOperations
	setup   SetupOperations
	gateway gateway.Gateway
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRouter builds a router. timeout bounds each background action.
func NewRouter(tickets TicketOperations, setup SetupOperations, gw gateway.Gateway, logger *zap.Logger, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Router{tickets: tickets, setup: setup, gateway: gw, logger: logger, timeout: timeout}
}

// Acknowledge returns the immediate response for an interaction and the
// request to run afterwards, if any.
func (r *Router) Acknowledge(i *discordgo.Interaction) (*discordgo.InteractionResponse, *Request) {
	route, req := Classify(i)
	switch route {
	case RoutePing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}, nil
	case RouteModal:
		return ticketModal(), nil
	case RouteAction:
		if req.GuildID == "" {
			return ephemeral(msgGuildOnly), nil
		}
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}, req
	default:
		r.logger.Warn("unknown interaction", zap.String("interaction_id", i.ID), zap.Int("type", int(i.Type)))
		return ephemeral(msgUnknown), nil
	}
}

// Dispatch runs req on its own goroutine with the router's timeout.
func (r *Router) Dispatch(req Request) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.Process(ctx, req)
	}()
}

// Wait blocks until dispatched requests finish.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Process executes req and sends the outcome as an ephemeral follow-up.
func (r *Router) Process(ctx context.Context, req Request) {
	reply := r.Execute(ctx, req)
	reply.Ephemeral = true

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followupTimeout)
	defer cancel()
	if err := r.gateway.Followup(fctx, req.Ref, reply); err != nil {
		r.logger.Warn("follow-up failed",
			zap.String("interaction_id", req.Ref.ID),
			zap.String("action", string(req.Action)),
			zap.Error(err))
	}
}

// Execute runs the action and returns the message for the actor.
func (r *Router) Execute(ctx context.Context, req Request) gateway.Message {
	var (
		reply gateway.Message
		err   error
	)
	switch req.Action {
	case domain.ActionOpenTicket:
		var result *service.OpenResult
		result, err = r.tickets.OpenTicket(ctx, req.Actor, req.GuildID, req.Reason)
		reply = openReply(result, err)
	case domain.ActionCloseTicket, domain.ActionDeleteTicket:
		_, err = r.tickets.ManageTicket(ctx, req.Actor, req.GuildID, req.ChannelID, req.Action)
		reply = manageReply(req.Action, err)
	case domain.ActionAddMember:
		_, err = r.tickets.AddMember(ctx, req.Actor, req.GuildID, req.ChannelID, req.TargetID)
		reply = addMemberReply(req.TargetID, err)
	case domain.ActionSetup:
		_, err = r.setup.Setup(ctx, req.Actor, req.GuildID, req.Setup)
		reply = setupReply(err)
	default:
		reply = text(msgUnknown)
	}

	if err != nil && errors.Is(err, apperrors.ErrPlatformUnavailable) {
		r.logger.Error("interaction failed at platform",
			zap.String("interaction_id", req.Ref.ID),
			zap.String("action", string(req.Action)),
			zap.String("guild_id", req.GuildID),
			zap.Error(err))
	}
	return reply
}

func ticketModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: service.CustomIDTicketModal,
			Title:    "Create Support Ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    service.ModalFieldReason,
						Label:       "Reason for your ticket",
						Placeholder: "Please describe your issue...",
						Style:       discordgo.TextInputParagraph,
						Required:    true,
						MaxLength:   1000,
					},
				}},
			},
		},
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	}
}
