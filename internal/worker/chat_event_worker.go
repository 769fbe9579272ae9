package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"lexichat/internal/model"
	"lexichat/internal/pkg/logger"
)

type EventStore interface {
	Create(record *model.ChatEventRecord) error
}

// ChatEventWorker drains the audit queue into MySQL. It runs off the
// request path; chat state itself is written synchronously by the service.
type ChatEventWorker struct {
	conn      *amqp.Connection
	store     EventStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewChatEventWorker(conn *amqp.Connection, store EventStore, queueName string) *ChatEventWorker {
	return &ChatEventWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *ChatEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handleDelivery(d)
			}
		}
	}()

	return nil
}

// handleDelivery persists one audit event. A body that cannot decode or
// persist is nacked without requeue.
func (w *ChatEventWorker) handleDelivery(d amqp.Delivery) {
	var event model.ChatEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logger.Errorw("worker decode chat event failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	record := &model.ChatEventRecord{
		Type:       event.Type,
		UserID:     event.UserID,
		ChatID:     event.ChatID,
		MessageID:  event.MessageID,
		OccurredAt: event.OccurredAt,
	}
	if err := w.store.Create(record); err != nil {
		logger.Errorw("worker persist chat event failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *ChatEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
