package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/zlnvch/homegate/mq"
	"github.com/zlnvch/homegate/service"
)

// PurgeConsumer drains the account-purge queue. Deleting an account only
// removes the user record inline; everything the account owned (apps,
// sessions, app sessions, master keys) is cleaned up here, off the request
// path.
type PurgeConsumer struct {
	purgeQueue mq.MessageQueue
	svc        *service.Service
}

func NewPurgeConsumer(purgeQueue mq.MessageQueue, svc *service.Service) *PurgeConsumer {
	return &PurgeConsumer{
		purgeQueue: purgeQueue,
		svc:        svc,
	}
}

// Allow up to 5 minutes for the cascade of scans and batch deletes
const visibilityTimeout = 300

func (c *PurgeConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := c.purgeQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("purgeConsumer receive error: %v", err)
			continue
		}

		if msg == nil {
			continue
		}

		var purgeMsg service.PurgeMessage
		if err := json.Unmarshal([]byte(msg.Body), &purgeMsg); err != nil {
			log.Printf("purgeConsumer bad message: %v", err)
			continue
		}

		// timeout should be a little less than queue visibility timeout
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)

		if err := c.svc.PurgeAccount(ctx, purgeMsg.UserId); err != nil {
			log.Printf("Failed to purge account %s: %v", purgeMsg.UserId, err)
			cancel()
			continue
		}

		if err := c.purgeQueue.Delete(ctx, msg); err != nil {
			log.Printf("Failed to delete purge message: %v", err)
		}
		cancel()
	}
}
