package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gootp/internal/passcode/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishPasscodeIssued keys the message by email so a partitioned broker
// keeps one recipient's codes in order.
func (m *Messaging) PublishPasscodeIssued(ctx context.Context, msg usecase.PasscodeIssuedEvent) error {
	ctx, span := m.ins.Tracer("passcode.outbound.mq").Start(ctx, "PublishPasscodeIssued")
	defer span.End()

	body, err := json.Marshal(event.PasscodeIssuedMessage{
		Email:     msg.Email,
		Purpose:   msg.Purpose.String(),
		Code:      msg.Code,
		ExpiresIn: msg.ExpiresIn,
		Resent:    msg.Resent,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.PasscodeIssuedDestination, messaging.OutgoingMessage{
		Key:     []byte(msg.Email),
		Body:    body,
		Headers: []messaging.Header{{Key: event.HeaderCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
