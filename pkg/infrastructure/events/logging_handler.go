package events

import (
	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

// LoggingHandler writes every audit event to the structured log
type LoggingHandler struct {
	log *logger.Logger
}

func NewLoggingHandler(log *logger.Logger) *LoggingHandler {
	return &LoggingHandler{log: logger.OrNop(log)}
}

func (h *LoggingHandler) CanHandle(string) bool { return true }

func (h *LoggingHandler) Handle(event Event) error {
	h.log.Info("audit",
		"event", event.Type(),
		"aggregate", string(event.Aggregate()),
		"id", event.AggregateID(),
		"stream", event.StreamID(),
		"version", event.Version(),
		"data", event.Data(),
	)
	return nil
}
