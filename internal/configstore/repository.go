package configstore

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/repository"
)

// RepositoryStore adapts a WorkspaceConfigRepository to the Store contract.
type RepositoryStore struct {
	repo   repository.WorkspaceConfigRepository
	logger *zap.Logger
}

// NewRepositoryStore builds a database-backed store.
func NewRepositoryStore(repo repository.WorkspaceConfigRepository, logger *zap.Logger) *RepositoryStore {
	return &RepositoryStore{repo: repo, logger: logger}
}

func (s *RepositoryStore) Get(ctx context.Context, guildID string) domain.WorkspaceConfig {
	cfg, err := s.repo.Get(ctx, guildID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("workspace config read failed; treating as unconfigured",
				zap.String("guild_id", guildID), zap.Error(err))
		}
		return domain.WorkspaceConfig{}
	}
	return *cfg
}

func (s *RepositoryStore) Set(ctx context.Context, guildID string, cfg domain.WorkspaceConfig) error {
	return s.repo.Upsert(ctx, guildID, cfg)
}
