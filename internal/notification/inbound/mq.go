package inbound

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/shared/event"
)

type consumer struct {
	name    string
	topic   string // destination where publisher sent message
	handler messaging.Handler
}

// RegisterMQConsumer starts one managed goroutine per enabled consumer. An
// empty modules.notification.consumer_names enables all of them.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) error {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	consumers := []consumer{
		{
			name:    event.PasscodeIssuedDestinationConsumerNotification,
			topic:   event.PasscodeIssuedDestination,
			handler: h.PasscodeIssuedNotification,
		},
	}

	if enabled := cfg.GetArray("modules.notification.consumer_names"); len(enabled) > 0 {
		consumers = lo.Filter(consumers, func(c consumer, _ int) bool {
			return lo.Contains(enabled, c.name)
		})
	}

	concurrency := max(cfg.GetInt("modules.notification.concurrency"), 1)

	for _, c := range consumers {
		err := routine.Go(ctx, c.name, func(ctx context.Context) error {
			slog.InfoContext(ctx, "running consumer", "consumer", c.name, "topic", c.topic)
			return messenger.Consume(ctx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
			)
		})
		if err != nil {
			return err
		}
	}

	return nil
}
