// Package events fans progress writes out to RabbitMQ so that other
// services (parent dashboards, analytics) can follow a learner without
// polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/abhisek/lexi/internal/store"
)

// DefaultExchange is the topic exchange progress events are published to.
const DefaultExchange = "lexi.progress"

const publishTimeout = 5 * time.Second

// Type is the routing key of a progress event.
type Type string

const (
	TypeLearnerCreated  Type = "learner.created"
	TypeSnapshotUpdated Type = "progress.snapshot"
	TypeSessionAppended Type = "progress.session"
	TypeAttemptAppended Type = "progress.attempt"
	TypeLearnerReset    Type = "learner.reset"
)

// Event is the envelope published for every progress write.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Learner    string    `json:"learner"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// NewEvent stamps a fresh event for learner.
func NewEvent(t Type, learner string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Learner:    store.LearnerKey(learner),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// Dial connects to url and declares exchange. An empty exchange uses
// DefaultExchange.
func Dial(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Exchange returns the exchange name.
func (p *AMQPPublisher) Exchange() string { return p.exchange }

// Publish sends ev with its type as routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		string(ev.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishingRepo decorates a ProgressRepo, publishing an event after each
// successful write. Publish failures are logged and never fail the write.
type PublishingRepo struct {
	store.ProgressRepo
	pub    Publisher
	logger *slog.Logger
}

var _ store.ProgressRepo = (*PublishingRepo)(nil)

// NewPublishingRepo wraps repo. A nil logger uses slog.Default().
func NewPublishingRepo(repo store.ProgressRepo, pub Publisher, logger *slog.Logger) *PublishingRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingRepo{ProgressRepo: repo, pub: pub, logger: logger}
}

func (r *PublishingRepo) LoadOrCreate(ctx context.Context, name string) (*store.ProgressRecord, bool, error) {
	rec, created, err := r.ProgressRepo.LoadOrCreate(ctx, name)
	if err == nil && created {
		r.publish(ctx, NewEvent(TypeLearnerCreated, name, map[string]string{"name": rec.Name}))
	}
	return rec, created, err
}

func (r *PublishingRepo) UpdateSnapshot(ctx context.Context, name string, patch store.SnapshotPatch) error {
	if err := r.ProgressRepo.UpdateSnapshot(ctx, name, patch); err != nil {
		return err
	}
	r.publish(ctx, NewEvent(TypeSnapshotUpdated, name, snapshotPayload(patch)))
	return nil
}

func (r *PublishingRepo) AppendSession(ctx context.Context, name string, entry store.SessionEntry) error {
	if err := r.ProgressRepo.AppendSession(ctx, name, entry); err != nil {
		return err
	}
	r.publish(ctx, NewEvent(TypeSessionAppended, name, entry))
	return nil
}

func (r *PublishingRepo) AppendAttempt(ctx context.Context, name string, entry store.AttemptEntry) error {
	if err := r.ProgressRepo.AppendAttempt(ctx, name, entry); err != nil {
		return err
	}
	r.publish(ctx, NewEvent(TypeAttemptAppended, name, entry))
	return nil
}

func (r *PublishingRepo) Reset(ctx context.Context, name string) error {
	if err := r.ProgressRepo.Reset(ctx, name); err != nil {
		return err
	}
	r.publish(ctx, NewEvent(TypeLearnerReset, name, nil))
	return nil
}

func (r *PublishingRepo) publish(ctx context.Context, ev Event) {
	if err := r.pub.Publish(ctx, ev); err != nil {
		r.logger.Warn("progress event not published",
			"type", ev.Type, "learner", ev.Learner, "error", err)
	}
}

// snapshotPayload flattens a patch into the fields it sets.
func snapshotPayload(p store.SnapshotPatch) map[string]any {
	out := map[string]any{}
	switch {
	case p.ClearLevel:
		out["currentLevel"] = nil
	case p.CurrentLevel != nil:
		out["currentLevel"] = *p.CurrentLevel
	}
	if p.CurrentExerciseIndex != nil {
		out["currentExerciseIndex"] = *p.CurrentExerciseIndex
	}
	if p.CompletedExercises != nil {
		out["completedExercises"] = *p.CompletedExercises
	}
	return out
}
