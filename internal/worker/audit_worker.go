package worker

import (
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/service"
)

// StartAuditWorker registers audit handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}

// StartEventBridge forwards lifecycle events to NATS when a bridge is configured.
func StartEventBridge(bridge *events.NATSBridge, dispatcher events.Dispatcher) {
	if bridge == nil || dispatcher == nil {
		return
	}
	bridge.Register(dispatcher)
}
