package daemon

import (
	"context"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/models"
	"github.com/mutt-telemetry/mutt/pkg/pipeline"
)

// registerDefaultHandlers installs the built-in action handlers.
//
// WEBHOOK marks the message for delivery by an external notifier; actual
// delivery is out of scope for the daemon. DISCARD is registered only when
// enabled in configuration: without a handler the router treats DISCARD
// like any other unhandled action and the message is stored normally.
// STORE needs no handler, it is the pipeline's default path.
func registerDefaultHandlers(router *pipeline.Router, discardEnabled bool) {
	router.RegisterHandler(models.ActionWebhook, webhookHandler)
	if discardEnabled {
		router.RegisterHandler(models.ActionDiscard, discardHandler)
	}
}

func webhookHandler(_ context.Context, msg *models.Message, rules []*models.AlertRule) error {
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]any)
	}
	msg.Metadata["webhook"] = "pending"
	logger.Debug("Message marked for webhook delivery",
		"message_id", msg.ID,
		"rules", len(rules))
	return nil
}

func discardHandler(_ context.Context, msg *models.Message, rules []*models.AlertRule) error {
	logger.Debug("Message discarded by rule",
		"message_id", msg.ID,
		"rules", len(rules))
	return nil
}
