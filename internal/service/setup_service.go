package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/access"
	"github.com/spec-kit/ticket-bot/internal/configstore"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

const (
	entryChannelTopic = "Create a ticket by clicking the button below"
	entryPurgeLimit   = 10
)

// SetupInput carries the optional setup arguments. Nil means not given.
type SetupInput struct {
	CategoryID    *string
	SupportRoleID *string
	LogChannelID  *string
}

// SetupResult reports the stored config and what setup had to create.
type SetupResult struct {
	Config          domain.WorkspaceConfig
	CategoryCreated bool
	ChannelCreated  bool
}

// SetupService provisions a workspace's ticket entry point.
type SetupService struct {
	configs          configstore.Store
	gateway          gateway.Gateway
	access           *access.Resolver
	logger           *zap.Logger
	categoryName     string
	entryChannelName string
}

// SetupDependencies bundles collaborators for the setup service.
type SetupDependencies struct {
	Configs          configstore.Store
	Gateway          gateway.Gateway
	Access           *access.Resolver
	Logger           *zap.Logger
	CategoryName     string
	EntryChannelName string
}

// NewSetupService constructs the service.
func NewSetupService(deps SetupDependencies) *SetupService {
	s := &SetupService{
		configs:          deps.Configs,
		gateway:          deps.Gateway,
		access:           deps.Access,
		logger:           deps.Logger,
		categoryName:     deps.CategoryName,
		entryChannelName: deps.EntryChannelName,
	}
	if s.access == nil {
		s.access = access.NewResolver(nil)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.categoryName == "" {
		s.categoryName = "Tickets"
	}
	if s.entryChannelName == "" {
		s.entryChannelName = "create-ticket"
	}
	return s
}

// Config returns the stored config for a workspace.
func (s *SetupService) Config(ctx context.Context, guildID string) domain.WorkspaceConfig {
	return s.configs.Get(ctx, guildID)
}

// Setup creates or reuses the ticket category and entry channel, posts the
// Create Ticket button and stores the workspace config wholesale.
func (s *SetupService) Setup(ctx context.Context, actor domain.Actor, guildID string, input SetupInput) (*SetupResult, error) {
	current := s.configs.Get(ctx, guildID)
	if !s.access.Authorize(actor, nil, current, domain.ActionSetup) {
		return nil, apperrors.NewForbidden()
	}
	if err := validateOptionalIDs(input); err != nil {
		return nil, err
	}

	result := &SetupResult{}
	category, err := s.category(ctx, guildID, input.CategoryID, result)
	if err != nil {
		return nil, err
	}

	entry, err := s.gateway.FindTextChannel(ctx, guildID, s.entryChannelName)
	if err != nil {
		return nil, s.platformError("find entry channel", guildID, err)
	}
	if entry == nil {
		entry, err = s.gateway.CreateTextChannel(ctx, guildID, s.entryChannelName, category.ID, entryChannelTopic)
		if err != nil {
			return nil, s.platformError("create entry channel", guildID, err)
		}
		result.ChannelCreated = true
	}

	if err := s.gateway.PurgeRecent(ctx, entry.ID, entryPurgeLimit); err != nil {
		s.logger.Warn("purge entry channel failed", zap.String("channel_id", entry.ID), zap.Error(err))
	}
	if err := s.gateway.SendMessage(ctx, entry.ID, entryPointMessage()); err != nil {
		return nil, s.platformError("post entry point", entry.ID, err)
	}

	result.Config = domain.WorkspaceConfig{
		TicketChannelID: entry.ID,
		CategoryID:      category.ID,
		SupportRoleID:   input.SupportRoleID,
		LogChannelID:    input.LogChannelID,
	}
	if err := s.configs.Set(ctx, guildID, result.Config); err != nil {
		s.logger.Error("store workspace config failed", zap.String("guild_id", guildID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("workspace configured",
		zap.String("guild_id", guildID),
		zap.String("category_id", category.ID),
		zap.String("ticket_channel_id", entry.ID),
		zap.String("actor_id", actor.ID))
	return result, nil
}

func (s *SetupService) category(ctx context.Context, guildID string, categoryID *string, result *SetupResult) (*gateway.Channel, error) {
	if categoryID == nil {
		category, err := s.gateway.CreateCategory(ctx, guildID, s.categoryName)
		if err != nil {
			return nil, s.platformError("create category", guildID, err)
		}
		result.CategoryCreated = true
		return category, nil
	}

	category, err := s.gateway.Channel(ctx, *categoryID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, apperrors.NewCategoryMissing(*categoryID)
	}
	if err != nil {
		return nil, s.platformError("resolve category", *categoryID, err)
	}
	if category.Kind != gateway.KindCategory || category.GuildID != guildID {
		return nil, apperrors.NewValidationError("channel is not a category of this workspace",
			map[string]any{"category_id": *categoryID})
	}
	return category, nil
}

func (s *SetupService) platformError(op, id string, err error) error {
	s.logger.Error("platform call failed", zap.String("operation", op), zap.String("id", id), zap.Error(err))
	return apperrors.NewPlatformUnavailable(op, err)
}

func validateOptionalIDs(input SetupInput) error {
	fields := map[string]*string{
		"category_id":     input.CategoryID,
		"support_role_id": input.SupportRoleID,
		"log_channel_id":  input.LogChannelID,
	}
	invalid := map[string]any{}
	for field, id := range fields {
		if id != nil && !domain.ValidID(*id) {
			invalid[field] = *id
		}
	}
	if len(invalid) > 0 {
		return apperrors.NewValidationError("invalid id", invalid)
	}
	return nil
}
