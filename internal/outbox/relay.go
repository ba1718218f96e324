package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/mailer"
	"github.com/karrelday/TaraLaba/internal/storage"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Sink interface {
	Deliver(context.Context, entities.OutboxMessage) error
}

type SinkFunc func(context.Context, entities.OutboxMessage) error

func (f SinkFunc) Deliver(ctx context.Context, message entities.OutboxMessage) error {
	return f(ctx, message)
}

type Options struct {
	Schedule    string
	BatchSize   int
	MaxAttempts int
	Workers     int
}

// Relay drains the outbox table into the sinks registered per topic.
type Relay struct {
	storage storage.Storage
	options Options
	sinks   map[string]Sink
}

func NewRelay(storage storage.Storage, options Options) *Relay {
	return &Relay{
		storage: storage,
		options: options,
		sinks:   make(map[string]Sink),
	}
}

func (r *Relay) Register(topic string, sink Sink) {
	r.sinks[topic] = sink
}

// Start dispatches once, then on every tick of the schedule until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := scheduler.AddFunc(r.options.Schedule, func() {
		r.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("error schedule outbox relay %q: %w", r.options.Schedule, err)
	}

	r.runOnce(ctx)

	scheduler.Start()
	zap.L().Info("outbox relay started", zap.String("schedule", r.options.Schedule))

	<-ctx.Done()

	<-scheduler.Stop().Done()
	zap.L().Info("outbox relay stopped")

	return nil
}

func (r *Relay) runOnce(ctx context.Context) {
	dispatched, err := r.Dispatch(ctx)
	if err != nil {
		zap.L().Error("error dispatch outbox", zap.Error(err))
		return
	}

	if dispatched > 0 {
		zap.L().Info("outbox dispatched", zap.Int64("messages", dispatched))
	}
}

// Dispatch delivers one batch of pending messages and returns how many were delivered.
// Failed deliveries stay pending with an incremented attempt counter.
func (r *Relay) Dispatch(ctx context.Context) (int64, error) {
	messages, err := r.storage.GetPendingOutbox(ctx, r.options.BatchSize, r.options.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("error get pending outbox: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	var dispatched atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.options.Workers)

	for _, message := range messages {
		message := message

		eg.Go(func() error {
			if r.deliver(egCtx, message) {
				dispatched.Add(1)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return dispatched.Load(), err
	}

	return dispatched.Load(), nil
}

func (r *Relay) deliver(ctx context.Context, message entities.OutboxMessage) bool {
	logger := zap.L().With(zap.String("messageID", message.ID), zap.String("topic", message.Topic))

	sink, ok := r.sinks[message.Topic]
	if !ok {
		logger.Debug("no sink for topic, dropping message")

		if err := r.storage.MarkOutboxDispatched(ctx, message.ID); err != nil {
			logger.Error("error mark outbox message dispatched", zap.Error(err))
		}

		return false
	}

	if err := sink.Deliver(ctx, message); err != nil {
		logger.Warn("error deliver outbox message", zap.Int("attempt", message.Attempts+1), zap.Error(err))

		if err := r.storage.MarkOutboxFailed(ctx, message.ID, err.Error()); err != nil {
			logger.Error("error mark outbox message failed", zap.Error(err))
		}

		return false
	}

	if err := r.storage.MarkOutboxDispatched(ctx, message.ID); err != nil {
		logger.Error("error mark outbox message dispatched", zap.Error(err))
		return false
	}

	return true
}

type emailSender interface {
	Send(context.Context, mailer.Email) error
}

func EmailSink(sender emailSender) Sink {
	return SinkFunc(func(ctx context.Context, message entities.OutboxMessage) error {
		var email mailer.Email
		if err := json.Unmarshal(message.Payload, &email); err != nil {
			return fmt.Errorf("cannot decode email payload: %w", err)
		}

		return sender.Send(ctx, email)
	})
}

type eventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// EventSink publishes the payload unchanged, routed by topic.
func EventSink(publisher eventPublisher) Sink {
	return SinkFunc(func(ctx context.Context, message entities.OutboxMessage) error {
		return publisher.Publish(ctx, message.Topic, message.Payload)
	})
}
