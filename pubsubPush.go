package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/retail_ledger/config"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/mmdatafocus/retail_ledger/workflow"
	"github.com/sirupsen/logrus"
)

// PubSubPushMessage is the envelope Pub/Sub push subscriptions POST.
type PubSubPushMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// invoicePostedPushHandler feeds the daily summary from a push subscription.
// 2xx acks; anything else makes Pub/Sub retry.
func invoicePostedPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "pubsubPush.go", "invoicePostedPushHandler", "io.ReadAll", nil, err)
			// Malformed request body: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		var msg PubSubPushMessage
		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "pubsubPush.go", "invoicePostedPushHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), msg.Message.ID)
		err = workflow.HandleInvoicePosted(ctx, logger, msg.Message.ID, msg.Message.Data)
		if errors.Is(err, workflow.ErrInvalidInvoicePostedMessage) {
			config.LogError(logger, "pubsubPush.go", "invoicePostedPushHandler", "invalid message", string(msg.Message.Data), err)
			c.Status(http.StatusNoContent)
			return
		}
		if err != nil {
			logger.WithFields(logrus.Fields{
				"field":        "invoicePostedPushHandler",
				"message_id":   msg.Message.ID,
				"subscription": msg.Subscription,
			}).Error("pubsub processing failed: " + err.Error())
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
