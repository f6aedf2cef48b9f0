package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/config"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// ReconcileEvent asks for a lot's counter to be re-derived from its bookings.
// Producers enqueue one whenever they suspect a partial write (a booking
// mutation where only one of the two document writes landed).
type ReconcileEvent struct {
	LotID int `json:"lot_id"`
}

type SQSConsumer struct {
	sqsClient      *sqs.Client
	queueURL       string
	bookingService *service.BookingService
}

func NewSQSConsumer(client *sqs.Client, cfg *config.Config, bookingService *service.BookingService) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:      client,
		queueURL:       cfg.SQSReconcileQueueURL,
		bookingService: bookingService,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("SQS Consumer listening on queue: %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("SQS Consumer: context cancelled, stopping.")
			return
		default:
			receiveInput := &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			}

			result, err := c.sqsClient.ReceiveMessage(ctx, receiveInput)
			if err != nil {
				log.Printf("SQS Consumer: error receiving messages: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					log.Println("SQS Consumer: context cancelled while waiting to retry.")
					return
				}
				continue
			}

			if len(result.Messages) == 0 {
				continue
			}

			log.Printf("SQS Consumer: received %d message(s)", len(result.Messages))

			for _, message := range result.Messages {
				if message.Body == nil {
					log.Println("SQS Consumer: message with empty body, deleting.")
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}

				processingErr := c.handleMessage(ctx, *message.Body)
				if processingErr == nil {
					c.deleteMessage(ctx, message.ReceiptHandle)
				} else {
					log.Printf("SQS Consumer: error processing message ID %s: %v. It will be retried after the visibility timeout.", *message.MessageId, processingErr)
				}
			}
		}
	}
}

func (c *SQSConsumer) handleMessage(ctx context.Context, body string) error {
	var event ReconcileEvent
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		// malformed payloads will never parse; log and drop
		log.Printf("SQS Consumer: unparseable message body %q: %v", body, err)
		return nil
	}
	if event.LotID <= 0 {
		log.Printf("SQS Consumer: message without a valid lot_id: %q", body)
		return nil
	}
	if err := c.bookingService.ReconcileLot(ctx, event.LotID); err != nil {
		return fmt.Errorf("reconcile lot %d: %w", event.LotID, err)
	}
	return nil
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		log.Println("SQS Consumer: empty receipt handle, cannot delete message.")
		return
	}
	_, delErr := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if delErr != nil {
		log.Printf("SQS Consumer: error deleting message: %v", delErr)
	}
}
