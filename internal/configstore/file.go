package configstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

const (
	keyTicketChannel = "ticket_channel"
	keyCategory      = "category"
	keySupportRole   = "support_role"
	keyLogChannel    = "log_channel"
)

// fileRecord keeps every key of a guild entry so unknown keys survive updates.
type fileRecord map[string]json.RawMessage

// FileStore keeps all guilds in one JSON file keyed by guild id. Ids are
// written as JSON numbers to stay compatible with existing config files.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewFileStore builds a store backed by path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Get(_ context.Context, guildID string) domain.WorkspaceConfig {
	s.mu.RLock()
	data, err := s.readAll()
	s.mu.RUnlock()
	if err != nil {
		s.logger.Warn("config file unreadable; treating as unconfigured",
			zap.String("path", s.path), zap.String("guild_id", guildID), zap.Error(err))
		return domain.WorkspaceConfig{}
	}

	record, ok := data[guildID]
	if !ok {
		return domain.WorkspaceConfig{}
	}
	cfg, err := decodeRecord(record)
	if err != nil {
		s.logger.Warn("config entry malformed; treating as unconfigured",
			zap.String("guild_id", guildID), zap.Error(err))
		return domain.WorkspaceConfig{}
	}
	return cfg
}

// Set reads and validates the whole file before rewriting it. A file that
// cannot be parsed is never overwritten, so other guilds' entries are not lost.
func (s *FileStore) Set(_ context.Context, guildID string, cfg domain.WorkspaceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readAll()
	if err != nil {
		return fmt.Errorf("refusing to overwrite unreadable config file %s: %w", s.path, err)
	}

	record, ok := data[guildID]
	if !ok {
		record = fileRecord{}
	}
	record[keyTicketChannel] = encodeID(&cfg.TicketChannelID)
	record[keyCategory] = encodeID(&cfg.CategoryID)
	record[keySupportRole] = encodeID(cfg.SupportRoleID)
	record[keyLogChannel] = encodeID(cfg.LogChannelID)
	data[guildID] = record

	return s.writeAll(data)
}

func (s *FileStore) readAll() (map[string]fileRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]fileRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]fileRecord{}, nil
	}
	data := map[string]fileRecord{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *FileStore) writeAll(data map[string]fileRecord) error {
	payload, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ticket-config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func decodeRecord(record fileRecord) (domain.WorkspaceConfig, error) {
	var cfg domain.WorkspaceConfig
	ticketChannel, err := decodeID(record[keyTicketChannel])
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", keyTicketChannel, err)
	}
	category, err := decodeID(record[keyCategory])
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", keyCategory, err)
	}
	if cfg.SupportRoleID, err = decodeID(record[keySupportRole]); err != nil {
		return cfg, fmt.Errorf("%s: %w", keySupportRole, err)
	}
	if cfg.LogChannelID, err = decodeID(record[keyLogChannel]); err != nil {
		return cfg, fmt.Errorf("%s: %w", keyLogChannel, err)
	}
	if ticketChannel != nil {
		cfg.TicketChannelID = *ticketChannel
	}
	if category != nil {
		cfg.CategoryID = *category
	}
	return cfg, nil
}

// decodeID accepts null, a JSON integer or a JSON string.
func decodeID(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var id string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
			return nil, fmt.Errorf("invalid id %s", n)
		}
		id = n.String()
	}
	if id == "" {
		return nil, nil
	}
	return &id, nil
}

func encodeID(id *string) json.RawMessage {
	if id == nil || *id == "" {
		return json.RawMessage("null")
	}
	if _, err := strconv.ParseUint(*id, 10, 64); err == nil && (*id)[0] != '0' {
		return json.RawMessage(*id)
	}
	quoted, _ := json.Marshal(*id)
	return quoted
}
