package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/calegray/storefront/internal/log"
	"github.com/calegray/storefront/internal/order/service"
	inOtel "github.com/calegray/storefront/internal/otel"
)

var tracer = otel.Tracer("github.com/calegray/storefront/internal/notification")

// Worker consumes order events and dispatches a notification per
// event. Dispatch is the structured notification record itself; mail
// delivery sits behind a provider outside this process.
type Worker struct {
	reader *kafka.Reader
}

func NewWorker(reader *kafka.Reader) Worker {
	return Worker{reader: reader}
}

// Run consumes until the context is canceled. Messages are committed
// only after the notification is dispatched, so a crash re-delivers
// rather than drops.
func (w Worker) Run(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Worker Run").
		Logger()

	logger.Info().Msg("consuming order events")
	for {
		message, err := w.reader.FetchMessage(c)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				logger.Info().Msg("stopped consuming order events")
				return nil
			}
			return fmt.Errorf("failed fetching message with error=%w", err)
		}

		if err := w.notify(c, message); err != nil {
			logger.Error().Err(err).Msg(err.Error())
			continue
		}

		if err := w.reader.CommitMessages(c, message); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed committing message with error=%w", err)
		}
	}
}

func (w Worker) notify(c context.Context, message kafka.Message) error {
	c, span := tracer.Start(c, "Worker notify")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Worker notify").
		Logger()

	event := service.OrderEvent{}
	if err := json.Unmarshal(message.Value, &event); err != nil {
		err = fmt.Errorf("failed decoding order event with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}

	logger.Info().
		Str(log.KeyOrderID, event.OrderID).
		Str(log.KeyUserID, event.UserID).
		Str(log.KeyOrderStatus, string(event.Status)).
		Time("occurredAt", event.OccurredAt).
		Msg("order notification dispatched")

	return nil
}
