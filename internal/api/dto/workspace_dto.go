package dto

import "github.com/spec-kit/ticket-bot/internal/domain"

// WorkspaceConfigResponse mirrors the persisted record; unset optionals are null.
type WorkspaceConfigResponse struct {
	GuildID       string  `json:"guild_id"`
	Configured    bool    `json:"configured"`
	TicketChannel *string `json:"ticket_channel"`
	Category      *string `json:"category"`
	SupportRole   *string `json:"support_role"`
	LogChannel    *string `json:"log_channel"`
}

// SetupRequest payload. Omitted fields mean "not given".
type SetupRequest struct {
	CategoryID    *string `json:"category_id"`
	SupportRoleID *string `json:"support_role_id"`
	LogChannelID  *string `json:"log_channel_id"`
}

// SetupResponse reports what setup created.
type SetupResponse struct {
	Config          WorkspaceConfigResponse `json:"config"`
	CategoryCreated bool                    `json:"category_created"`
	ChannelCreated  bool                    `json:"channel_created"`
}

// WorkspaceConfigFrom maps a domain config.
func WorkspaceConfigFrom(guildID string, cfg domain.WorkspaceConfig) WorkspaceConfigResponse {
	return WorkspaceConfigResponse{
		GuildID:       guildID,
		Configured:    cfg.Configured(),
		TicketChannel: nonEmpty(cfg.TicketChannelID),
		Category:      nonEmpty(cfg.CategoryID),
		SupportRole:   cfg.SupportRoleID,
		LogChannel:    cfg.LogChannelID,
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
