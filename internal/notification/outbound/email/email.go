package email

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Mail traces every delivery attempt and counts them by outcome. Message
// bodies carry codes and are never attached to spans.
type Mail struct {
	client   mail.Mail
	ins      instrument.Instrumentation
	attempts metric.Int64Counter
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	attempts, err := ins.Meter("notification.outbound.email").Int64Counter("notification.email.attempts",
		metric.WithDescription("Email delivery attempts by outcome"))
	if err != nil {
		slog.Warn("failed to create notification.email.attempts counter", "error", err)
		attempts = noop.Int64Counter{}
	}

	return &Mail{client: client, ins: ins, attempts: attempts}
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	span.SetAttributes(attribute.Int("email.recipients", len(msg.To)))

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return err
	}

	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "sent")))
	return nil
}
