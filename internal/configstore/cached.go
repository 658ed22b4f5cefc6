package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

const (
	cacheKeyPrefix   = "tickets:config:"
	versionKeyPrefix = "tickets:config-version:"
)

// fillIfCurrent caches ARGV[2] under KEYS[1] only while the version at
// KEYS[2] still equals ARGV[1].
var fillIfCurrent = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

type cachedConfig struct {
	TicketChannel string  `json:"ticket_channel"`
	Category      string  `json:"category"`
	SupportRole   *string `json:"support_role"`
	LogChannel    *string `json:"log_channel"`
}

// CachedStore is a Redis read-through cache in front of another Store.
// Cache failures fall through to the inner store.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStore wraps inner with a Redis cache.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) Get(ctx context.Context, guildID string) domain.WorkspaceConfig {
	key := cacheKeyPrefix + guildID
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedConfig
		if err := json.Unmarshal(raw, &cached); err == nil {
			return domain.WorkspaceConfig{
				TicketChannelID: cached.TicketChannel,
				CategoryID:      cached.Category,
				SupportRoleID:   cached.SupportRole,
				LogChannelID:    cached.LogChannel,
			}
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Debug("config cache read failed", zap.String("guild_id", guildID), zap.Error(err))
	}

	// A Set between the version read and the fill bumps the version, so a
	// config read before that Set is never cached.
	version, err := s.client.Get(ctx, versionKeyPrefix+guildID).Result()
	switch {
	case errors.Is(err, redis.Nil):
		version = "0"
	case err != nil:
		s.logger.Debug("config version read failed", zap.String("guild_id", guildID), zap.Error(err))
		return s.inner.Get(ctx, guildID)
	}

	cfg := s.inner.Get(ctx, guildID)
	if !cfg.Configured() {
		return cfg
	}
	payload, err := json.Marshal(cachedConfig{
		TicketChannel: cfg.TicketChannelID,
		Category:      cfg.CategoryID,
		SupportRole:   cfg.SupportRoleID,
		LogChannel:    cfg.LogChannelID,
	})
	if err != nil {
		return cfg
	}
	keys := []string{key, versionKeyPrefix + guildID}
	if err := fillIfCurrent.Run(ctx, s.client, keys, version, payload, s.ttl.Milliseconds()).Err(); err != nil {
		s.logger.Debug("config cache write failed", zap.String("guild_id", guildID), zap.Error(err))
	}
	return cfg
}

// Set writes through to the inner store, bumps the guild's version and then
// drops the cached entry.
func (s *CachedStore) Set(ctx context.Context, guildID string, cfg domain.WorkspaceConfig) error {
	if err := s.inner.Set(ctx, guildID, cfg); err != nil {
		return err
	}
	if err := s.client.Incr(ctx, versionKeyPrefix+guildID).Err(); err != nil {
		s.logger.Warn("config version bump failed", zap.String("guild_id", guildID), zap.Error(err))
	}
	if err := s.client.Del(ctx, cacheKeyPrefix+guildID).Err(); err != nil {
		s.logger.Warn("config cache invalidation failed", zap.String("guild_id", guildID), zap.Error(err))
	}
	return nil
}
