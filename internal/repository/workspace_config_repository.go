package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// WorkspaceConfigRepository persists per-guild settings.
type WorkspaceConfigRepository interface {
	Get(ctx context.Context, guildID string) (*domain.WorkspaceConfig, error)
	Upsert(ctx context.Context, guildID string, cfg domain.WorkspaceConfig) error
}

type workspaceConfigRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceConfigRepository builds repository.
func NewWorkspaceConfigRepository(pool *pgxpool.Pool) WorkspaceConfigRepository {
	return &workspaceConfigRepository{pool: pool}
}

func (r *workspaceConfigRepository) Get(ctx context.Context, guildID string) (*domain.WorkspaceConfig, error) {
	const query = `
        SELECT ticket_channel_id, category_id, support_role_id, log_channel_id
        FROM workspace_configs WHERE guild_id=$1`
	var cfg domain.WorkspaceConfig
	err := r.pool.QueryRow(ctx, query, guildID).Scan(
		&cfg.TicketChannelID,
		&cfg.CategoryID,
		&cfg.SupportRoleID,
		&cfg.LogChannelID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert writes a single row, so concurrent setups for one guild serialize
// on its row lock and never touch other guilds.
func (r *workspaceConfigRepository) Upsert(ctx context.Context, guildID string, cfg domain.WorkspaceConfig) error {
	const query = `
        INSERT INTO workspace_configs (guild_id, ticket_channel_id, category_id, support_role_id, log_channel_id)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (guild_id) DO UPDATE SET
            ticket_channel_id = EXCLUDED.ticket_channel_id,
            category_id       = EXCLUDED.category_id,
            support_role_id   = EXCLUDED.support_role_id,
            log_channel_id    = EXCLUDED.log_channel_id,
            updated_at        = NOW()`
	_, err := r.pool.Exec(ctx, query,
		guildID,
		cfg.TicketChannelID,
		cfg.CategoryID,
		cfg.SupportRoleID,
		cfg.LogChannelID,
	)
	return err
}
