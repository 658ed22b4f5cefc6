package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// TicketsHandler exposes ticket operations to operators.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/workspaces/:guildID/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	guildID, err := idParam(c, "guildID")
	if err != nil {
		return err
	}
	query, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), repository.TicketFilter{
		GuildID:     guildID,
		RequesterID: query.RequesterID,
		States:      query.States,
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
		Limit:       query.PageSize,
		Offset:      (query.Page - 1) * query.PageSize,
	})
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketSummaryFrom(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items, "page": query.Page, "page_size": query.PageSize})
}

// GetTicket GET /api/workspaces/:guildID/tickets/:ticketID.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	guildID, ticketID, err := ticketParams(c)
	if err != nil {
		return err
	}
	details, err := h.service.GetTicket(c.UserContext(), guildID, ticketID,
		parseInt(c.Query("history_limit"), 50), 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailFrom(details.Ticket, details.History)})
}

// CloseTicket POST /api/workspaces/:guildID/tickets/:ticketID/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	return h.manage(c, domain.ActionCloseTicket)
}

// DeleteTicket DELETE /api/workspaces/:guildID/tickets/:ticketID.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	return h.manage(c, domain.ActionDeleteTicket)
}

func (h *TicketsHandler) manage(c *fiber.Ctx, action domain.Action) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	guildID, ticketID, err := ticketParams(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ManageTicket(c.UserContext(), actor, guildID, ticketID, action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFrom(ticket)})
}

// AddMember POST /api/workspaces/:guildID/tickets/:ticketID/members.
func (h *TicketsHandler) AddMember(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	guildID, ticketID, err := ticketParams(c)
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !domain.ValidID(req.UserID) {
		return apperrors.NewValidationError("user_id must be a valid id", map[string]any{"user_id": req.UserID})
	}
	ticket, err := h.service.AddMember(c.UserContext(), actor, guildID, ticketID, req.UserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketSummaryFrom(ticket)})
}

func ticketParams(c *fiber.Ctx) (string, string, error) {
	guildID, err := idParam(c, "guildID")
	if err != nil {
		return "", "", err
	}
	ticketID, err := idParam(c, "ticketID")
	if err != nil {
		return "", "", err
	}
	return guildID, ticketID, nil
}

func idParam(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if !domain.ValidID(id) {
		return "", apperrors.NewValidationError(name+" must be a valid id", map[string]any{name: id})
	}
	return id, nil
}

func parseTicketQuery(c *fiber.Ctx) (dto.TicketListQuery, error) {
	query := dto.TicketListQuery{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if stateStr := c.Query("state"); stateStr != "" {
		for _, part := range strings.Split(stateStr, ",") {
			state := domain.TicketState(strings.ToUpper(strings.TrimSpace(part)))
			switch state {
			case domain.TicketStateOpen, domain.TicketStateArchived, domain.TicketStateDeleted:
				query.States = append(query.States, state)
			default:
				return query, apperrors.NewValidationError("unknown state", map[string]any{"state": part})
			}
		}
	}
	if requester := c.Query("requester_id"); requester != "" {
		if !domain.ValidID(requester) {
			return query, apperrors.NewValidationError("requester_id must be a valid id", nil)
		}
		query.RequesterID = &requester
	}
	query.CreatedFrom = parseTime(c.Query("created_from"))
	query.CreatedTo = parseTime(c.Query("created_to"))
	return query, nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
