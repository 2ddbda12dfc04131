package notification

import (
	"context"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

// logSink records notifications instead of delivering them. It stands in for
// the Kafka sink in deployments and tests that run without a broker.
type logSink struct {
	l logger.Logger
}

func NewLogSink(l logger.Logger) Sink {
	return &logSink{l: l}
}

func (s *logSink) Send(_ context.Context, n models.Notification) error {
	s.l.Info("Notification (log sink)",
		"recipient_id", n.RecipientID,
		"category", n.Category,
		"type", n.Type,
		"priority", n.Priority,
		"message", n.Message,
	)
	return nil
}
