package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/service"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// WorkspacesHandler exposes workspace configuration to operators.
type WorkspacesHandler struct {
	setup *service.SetupService
}

// NewWorkspacesHandler constructs handler.
func NewWorkspacesHandler(setupService *service.SetupService) *WorkspacesHandler {
	return &WorkspacesHandler{setup: setupService}
}

// GetConfig GET /api/workspaces/:guildID/config.
func (h *WorkspacesHandler) GetConfig(c *fiber.Ctx) error {
	guildID, err := idParam(c, "guildID")
	if err != nil {
		return err
	}
	cfg := h.setup.Config(c.UserContext(), guildID)
	return c.JSON(fiber.Map{"data": dto.WorkspaceConfigFrom(guildID, cfg)})
}

// Setup PUT /api/workspaces/:guildID/setup.
func (h *WorkspacesHandler) Setup(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	guildID, err := idParam(c, "guildID")
	if err != nil {
		return err
	}
	var req dto.SetupRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	result, err := h.setup.Setup(c.UserContext(), actor, guildID, service.SetupInput{
		CategoryID:    req.CategoryID,
		SupportRoleID: req.SupportRoleID,
		LogChannelID:  req.LogChannelID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SetupResponse{
		Config:          dto.WorkspaceConfigFrom(guildID, result.Config),
		CategoryCreated: result.CategoryCreated,
		ChannelCreated:  result.ChannelCreated,
	}})
}
