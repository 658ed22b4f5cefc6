// Package configstore holds per-guild ticket settings.
//
// Get never fails: a missing entry or an unreadable backend yields the zero
// WorkspaceConfig, which callers treat as "unconfigured". Set reports write
// failures and must never drop or alter another guild's entry.
package configstore

import (
	"context"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// Store is the workspace configuration contract.
type Store interface {
	Get(ctx context.Context, guildID string) domain.WorkspaceConfig
	Set(ctx context.Context, guildID string, cfg domain.WorkspaceConfig) error
}
