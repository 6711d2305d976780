package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Handler processes one delivery.
type Handler interface {
	Handle(ctx context.Context, d Delivery) error
}

// Serve runs workers goroutines that hand deliveries to h until ctx is done
// or deliveries is closed. It returns once every worker has finished its
// current message.
func Serve(ctx context.Context, workers int, deliveries <-chan Delivery, h Handler, logger *errors.Logger) {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		go func(id int) {
			defer wg.Done()
			logger.Debug("Queue worker started", "worker_id", id)
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					if err := h.Handle(ctx, d); err != nil {
						logger.LogError(err, "Failed to handle delivery", "worker_id", id, "message_id", d.MessageID())
					}
				}
			}
		}(i + 1)
	}
	wg.Wait()
}

// Worker consumes analysis requests from RabbitMQ.
type Worker struct {
	cfg     config.QueueConfig
	build   func(Publisher) (Handler, error)
	logger  *errors.Logger
	breaker *PublishCircuitBreaker
}

// NewWorker prepares a worker. build receives the broker-backed publisher
// once the connection is up and returns the message handler.
func NewWorker(cfg config.QueueConfig, build func(Publisher) (Handler, error), logger *errors.Logger) *Worker {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Worker{cfg: cfg, build: build, logger: logger}
}

// Breaker returns the publish circuit breaker shared by the worker's
// handlers.
func (w *Worker) Breaker() *PublishCircuitBreaker {
	if w.breaker == nil {
		w.breaker = NewPublishCircuitBreaker("amqp-publish-"+w.cfg.ResultQueue, w.cfg.CircuitBreaker, w.logger)
	}
	return w.breaker
}

// Run dials the broker, declares both queues and consumes until ctx is
// cancelled or the connection drops.
func (w *Worker) Run(ctx context.Context) error {
	conn, err := amqp.Dial(w.cfg.URL)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to dial rabbitmq", err)
	}
	defer func() { _ = conn.Close() }()

	consumeCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consume channel: %w", err)
	}
	defer func() { _ = consumeCh.Close() }()

	publishCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open publish channel: %w", err)
	}
	defer func() { _ = publishCh.Close() }()

	for _, name := range []string{w.cfg.InputQueue, w.cfg.ResultQueue} {
		if _, err := consumeCh.QueueDeclare(
			name,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	if w.cfg.Prefetch > 0 {
		if err := consumeCh.Qos(w.cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	handler, err := w.build(&amqpPublisher{ch: publishCh, queue: w.cfg.ResultQueue})
	if err != nil {
		return err
	}

	consumerTag := "resumescore-" + uuid.NewString()
	msgs, err := consumeCh.Consume(
		w.cfg.InputQueue,
		consumerTag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", w.cfg.InputQueue, err)
	}

	w.logger.Info("Queue worker consuming",
		"input_queue", w.cfg.InputQueue,
		"result_queue", w.cfg.ResultQueue,
		"workers", w.cfg.Workers,
		"prefetch", w.cfg.Prefetch)

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	deliveries := make(chan Delivery)
	go func() {
		defer close(deliveries)
		for m := range msgs {
			select {
			case deliveries <- amqpDelivery{m}:
			case <-runCtx.Done():
				_ = m.Nack(false, true)
				return
			}
		}
	}()

	connErrs := make(chan error, 1)
	go func() {
		select {
		case amqpErr := <-closed:
			if amqpErr != nil {
				connErrs <- amqpErr
			}
			cancel()
		case <-runCtx.Done():
		}
	}()

	Serve(runCtx, w.cfg.Workers, deliveries, handler, w.logger)
	cancel()

	select {
	case connErr := <-connErrs:
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "rabbitmq connection closed", connErr)
	default:
	}
	if err := consumeCh.Cancel(consumerTag, false); err != nil {
		w.logger.LogError(err, "Failed to cancel consumer")
	}
	w.logger.Info("Queue worker stopped")
	return nil
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a amqpDelivery) Body() []byte            { return a.d.Body }
func (a amqpDelivery) MessageID() string       { return a.d.MessageId }
func (a amqpDelivery) Ack() error              { return a.d.Ack(false) }
func (a amqpDelivery) Nack(requeue bool) error { return a.d.Nack(false, requeue) }

type amqpPublisher struct {
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

func (p *amqpPublisher) Publish(ctx context.Context, envelope types.AnalysisEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Publish(
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    envelope.AnalysisID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}
