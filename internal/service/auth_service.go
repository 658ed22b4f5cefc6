package service

import (
	"context"
	"crypto/subtle"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// AuthService authenticates the configured operator account.
type AuthService struct {
	tokens       *auth.TokenManager
	username     string
	passwordHash string
	discordID    string
	admin        bool
	logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		tokens:       tokens,
		username:     cfg.OperatorUsername,
		passwordHash: cfg.OperatorPasswordHash,
		discordID:    cfg.OperatorDiscordID,
		admin:        cfg.OperatorIsAdmin,
		logger:       logger,
	}
}

// Enabled reports whether an operator account is configured.
func (s *AuthService) Enabled() bool {
	return s.username != "" && s.passwordHash != "" && s.discordID != ""
}

// LoginOperator checks credentials and issues an access token.
func (s *AuthService) LoginOperator(_ context.Context, username, password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, apperrors.NewUnauthorized("operator login is disabled")
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := auth.PasswordMatches(s.passwordHash, password)
	if !userOK || !passOK {
		s.logger.Warn("operator login rejected", zap.String("username", username))
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokens.GenerateToken(s.username, s.discordID, s.admin)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}
