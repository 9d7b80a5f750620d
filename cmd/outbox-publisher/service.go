package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	idleCeiling        = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// RelayParams wires the relay. PublisherFactory defaults to the Pub/Sub
// client's publishers; Metrics may be nil.
type RelayParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
	Metrics          *metrics.Storefront
}

// Relay moves committed order and notification events from outbox_events
// to Pub/Sub. Each row ends up published, scheduled for retry, or dead
// lettered, all inside the transaction that locked it.
type Relay struct {
	logg        *logger.Logger
	db          dbClient
	pubsub      pubSubClient
	rows        outboxRepository
	registry    registryResolver
	dlq         dlqRepository
	publisherOf publisherFactory
	metrics     *metrics.Storefront

	batchSize   int
	maxAttempts int
	poll        time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Config == nil:
		return nil, errors.New("config is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	case p.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := p.PublisherFactory
	if factory == nil {
		client := p.PubSub
		factory = func(topic string) publisher {
			if pub := client.Publisher(topic); pub != nil {
				return &gcpPublisher{Publisher: pub}
			}
			return nil
		}
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		pubsub:      p.PubSub,
		rows:        p.Repository,
		registry:    p.Registry,
		dlq:         p.DLQRepository,
		publisherOf: factory,
		metrics:     p.Metrics,
		batchSize:   p.Config.Outbox.BatchSize,
		maxAttempts: p.Config.Outbox.MaxAttempts,
		poll:        time.Duration(p.Config.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = defaultMaxAttempts
	}
	if r.poll <= 0 {
		r.poll = defaultPoll
	}
	return r, nil
}

// Run drains the outbox until ctx is cancelled. A full batch is followed
// immediately by the next one; an empty batch waits one poll interval and a
// failed batch backs off exponentially up to idleCeiling.
func (r *Relay) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{"database": r.db.Ping, "pubsub": r.pubsub.Ping} {
		if err := ping(ctx); err != nil {
			r.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	wait := pacer{base: r.poll, ceiling: idleCeiling}
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}

		handled, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox relay batch failed", err)
			err = sleepCtx(ctx, wait.fail())
		case handled > 0:
			wait.reset()
			continue
		default:
			wait.reset()
			err = sleepCtx(ctx, wait.idle())
		}
		if err != nil {
			return err
		}
	}
}

// drain locks one batch and settles every row in it. Returns how many rows
// were locked.
func (r *Relay) drain(ctx context.Context) (int, error) {
	handled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		batch, err := r.rows.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		handled = len(batch)
		for _, row := range batch {
			if err := r.settle(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	return handled, err
}

// settle publishes row and records the outcome. Only bookkeeping failures
// are returned; they abort the batch transaction.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) error {
	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err, fieldsFor(row, nil))
	}

	fields := fieldsFor(row, resolved)
	err = r.publish(ctx, row, resolved)
	r.metrics.OutboxPublished(string(row.EventType), row.CreatedAt, err)

	if err == nil {
		if markErr := r.rows.MarkPublishedTx(tx, row.ID); markErr != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, markErr)
		}
		r.logg.Info(r.logg.WithFields(ctx, fields), "outbox event published")
		return nil
	}

	reason, terminal := classify(err, row.AttemptCount+1, r.maxAttempts)
	if terminal {
		if reason == enums.OutboxDLQReasonMaxAttempts {
			err = fmt.Errorf("max publish attempts reached: %w", err)
		}
		return r.deadLetter(ctx, tx, row, reason, err, fields)
	}

	fields["attempt_count"] = row.AttemptCount + 1
	r.logg.Warn(r.logg.WithField(r.logg.WithFields(ctx, fields), "error", err.Error()), "outbox publish failed, will retry")
	if markErr := r.rows.MarkFailedTx(tx, row.ID, err); markErr != nil {
		return fmt.Errorf("mark failure %s: %w", row.ID, markErr)
	}
	return nil
}

// errUnroutable marks an event whose topic has no configured publisher.
var errUnroutable = errors.New("no publisher for topic")

// classify decides whether a publish failure is final.
func classify(err error, attempt, maxAttempts int) (enums.OutboxDLQErrorReason, bool) {
	if errors.Is(err, errUnroutable) {
		return enums.OutboxDLQReasonUnroutable, true
	}
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return enums.OutboxDLQReasonNonRetryable, true
	}
	if attempt >= maxAttempts {
		return enums.OutboxDLQReasonMaxAttempts, true
	}
	return "", false
}

func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	fields["error_reason"] = reason
	fields["replayable"] = reason.Replayable()
	r.logg.Warn(r.logg.WithField(r.logg.WithFields(ctx, fields), "error", cause.Error()), "outbox event dead-lettered")

	entry := outbox.NewDLQEntry(row, reason, cause)
	entry.FailedAt = time.Now().UTC()
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.rows.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	return nil
}

func (r *Relay) publish(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := r.publisherOf(topic)
	if pub == nil {
		return fmt.Errorf("%w: %s", errUnroutable, topic)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	res := pub.Publish(publishCtx, message(row, resolved))
	if res == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topic))
	}
	_, err := res.Get(publishCtx)
	return err
}

// message carries the stored envelope unchanged. Order events are keyed by
// order id so subscribers with ordering enabled see one order's transitions
// in commit order.
func message(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	msg := &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if row.AggregateType == enums.AggregateOrder {
		msg.OrderingKey = row.AggregateID.String()
	}
	return msg
}

func fieldsFor(row models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		if resolved.Envelope.EventID != "" {
			fields["event_id"] = resolved.Envelope.EventID
		}
	}
	if row.LastError != nil {
		fields["last_error"] = *row.LastError
	}
	return fields
}

// pacer tracks the delay between batches.
type pacer struct {
	base    time.Duration
	ceiling time.Duration
	current time.Duration
}

func (p *pacer) reset() { p.current = p.base }

func (p *pacer) idle() time.Duration { return jitter(p.base) }

func (p *pacer) fail() time.Duration {
	if p.current < p.base {
		p.current = p.base
	}
	p.current *= 2
	if p.current > p.ceiling {
		p.current = p.ceiling
	}
	return jitter(p.current)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(jitterWindow)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{
		PublishResult: p.Publisher.Publish(ctx, msg),
		publisher:     p.Publisher,
		orderingKey:   msg.OrderingKey,
	}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
	publisher   *gcppubsub.Publisher
	orderingKey string
}

// Get waits for the server ack. A failed ordered publish pauses its key, so
// the key is resumed for the retry on a later batch.
func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	id, err := r.PublishResult.Get(ctx)
	if err != nil && r.orderingKey != "" {
		r.publisher.ResumePublish(r.orderingKey)
	}
	return id, err
}
