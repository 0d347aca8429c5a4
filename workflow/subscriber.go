package workflow

import (
	"context"
	"errors"

	"cloud.google.com/go/pubsub"
	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/sirupsen/logrus"
)

// HandleInvoicePosted decodes and applies one delivery. Malformed bodies
// return ErrInvalidInvoicePostedMessage and should be dropped, not retried.
func HandleInvoicePosted(ctx context.Context, logger *logrus.Logger, messageId string, data []byte) error {
	m, err := DecodeInvoicePosted(data)
	if err != nil {
		return err
	}
	return ProcessInvoicePosted(ctx, logger, messageId, m)
}

// RunDailySummaryWorker pulls invoice posted events until ctx is done.
func RunDailySummaryWorker(ctx context.Context) error {
	logger := config.GetLogger()
	client, err := config.GetPubSubClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(ctx, client, config.InvoicePostedTopic())
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(ctx, client, config.InvoicePostedSubscription(), topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		err := HandleInvoicePosted(ctx, logger, msg.ID, msg.Data)
		switch {
		case err == nil:
			msg.Ack()
		case errors.Is(err, ErrInvalidInvoicePostedMessage):
			config.LogError(logger, "subscriber.go", "RunDailySummaryWorker", "dropping malformed message", string(msg.Data), err)
			msg.Ack()
		default:
			logger.WithFields(logrus.Fields{
				"field":      "DailySummaryWorker",
				"message_id": msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
		}
	}

	go func() {
		if err := sub.Receive(ctx, callback); err != nil {
			config.LogError(logger, "subscriber.go", "RunDailySummaryWorker", "Failed to receive messages", nil, err)
		}
	}()
	return nil
}
