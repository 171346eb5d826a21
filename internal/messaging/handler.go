package messaging

import (
	"context"
	"log/slog"

	"nutri/internal/messaging/models"
)

// Handler processes one ingested message.
type Handler interface {
	Handle(ctx context.Context, msg models.Message) error
}

type HandlerFunc func(ctx context.Context, msg models.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg models.Message) error {
	return f(ctx, msg)
}

// LogHandler records every message at info level. Bodies are not logged.
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Handle(ctx context.Context, msg models.Message) error {
	attrs := []any{
		"message_id", msg.ID,
		"from", msg.From,
		"to", msg.To,
		"sent_at", msg.Timestamp,
		"body_length", len(msg.Body),
	}
	if msg.IsGroup {
		attrs = append(attrs, "group_id", msg.GroupID)
	}
	h.logger.InfoContext(ctx, "message received", attrs...)
	return nil
}
