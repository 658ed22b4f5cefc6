package handlers

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/bot"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// InteractionsHandler receives platform interactions over HTTP.
type InteractionsHandler struct {
	publicKey ed25519.PublicKey
	router    *bot.Router
	logger    *zap.Logger
}

// NewInteractionsHandler parses the application's hex encoded public key.
func NewInteractionsHandler(publicKeyHex string, router *bot.Router, logger *zap.Logger) (*InteractionsHandler, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &InteractionsHandler{publicKey: key, router: router, logger: logger}, nil
}

// Handle POST /interactions.
func (h *InteractionsHandler) Handle(c *fiber.Ctx) error {
	req, err := adaptor.ConvertRequest(c, false)
	if err != nil {
		return apperrors.NewValidationError("invalid request", nil)
	}
	if !discordgo.VerifyInteraction(req, h.publicKey) {
		return apperrors.NewUnauthorized("invalid request signature")
	}

	var interaction discordgo.Interaction
	if err := json.Unmarshal(c.Body(), &interaction); err != nil {
		return apperrors.NewValidationError("invalid interaction payload", nil)
	}

	response, action := h.router.Acknowledge(&interaction)
	if action != nil {
		h.logger.Debug("interaction accepted",
			zap.String("interaction_id", interaction.ID),
			zap.String("action", string(action.Action)),
			zap.String("guild_id", action.GuildID))
		// Hijack handlers run once the response has been flushed, so the
		// follow-up can never overtake the deferred ack. The connection is
		// closed afterwards.
		req := *action
		c.Context().Hijack(func(net.Conn) {
			h.router.Dispatch(req)
		})
	}
	return c.JSON(response)
}
