package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages through an external transport. Delivery mechanics
// live outside this service; implementations only need to be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records outbound mail to the application log instead of
// delivering it. Used in development and as the default transport.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outbound email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
