package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/notification/usecase"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if id := messaging.HeaderValue(msg, event.HeaderCorrelationID); id != "" {
		return instrument.SetCorrelationID(ctx, id)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// PasscodeIssuedNotification never logs the body, it carries the code.
func (h *MQHandler) PasscodeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasscodeIssuedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: passcode issued notification", "topic", msg.Topic(), "key", string(msg.Key()))

	var payload event.PasscodeIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of passcode issued notification", "size", len(msg.Body()), "error", err)
		return nil
	}

	if err := h.uc.ConsumePasscodeIssued(ctx, usecase.ConsumePasscodeIssuedInput{
		Email:     payload.Email,
		Purpose:   payload.Purpose,
		Code:      payload.Code,
		ExpiresIn: payload.ExpiresIn,
		Resent:    payload.Resent,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume passcode issued", "email", payload.Email, "error", err)
		return err
	}

	return nil
}
