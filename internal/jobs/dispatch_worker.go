package jobs

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/microlend/backend/internal/notify"
	"github.com/microlend/backend/internal/observability"
)

// OutboxEvent is a queued notification claimed from the outbox table.
type OutboxEvent struct {
	ID          int64
	Kind        string
	Recipient   notify.Recipient
	Subject     string
	EmailHTML   string
	SMSText     string
	Fingerprint []byte
	Status      string
	Attempts    int32
	LastError   string
	AvailableAt time.Time
}

type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int32) ([]OutboxEvent, error)
	MarkDone(ctx context.Context, eventID int64) error
	MarkRetry(ctx context.Context, eventID int64, nextAvailableAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, eventID int64, lastError string) error
}

// FeedPublisher fans dispatched events out to the ops websocket feed.
type FeedPublisher interface {
	Publish(topic string, payload []byte)
}

// DispatchWorker drains the notification outbox: it claims pending events,
// sends them through the notifier, and marks them done, retried, or failed.
// Delivery failures back off linearly and give up after maxAttempts.
type DispatchWorker struct {
	outbox       OutboxRepository
	notifier     notify.Notifier
	feed         FeedPublisher
	metrics      *observability.JobMetrics
	logger       *slog.Logger
	maxAttempts  int32
	now          func() time.Time
	retryBackoff func(attempt int32) time.Duration
}

func NewDispatchWorker(outbox OutboxRepository, notifier notify.Notifier, feed FeedPublisher, metrics *observability.JobMetrics, logger *slog.Logger, maxAttempts int32) *DispatchWorker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &DispatchWorker{
		outbox:      outbox,
		notifier:    notifier,
		feed:        feed,
		metrics:     metrics,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
		retryBackoff: func(attempt int32) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return time.Duration(attempt*15) * time.Second
		},
	}
}

func (w *DispatchWorker) RunOnce(ctx context.Context, batchSize int32) error {
	events, err := w.outbox.ClaimPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if err := w.processEvent(ctx, ev); err != nil {
			return err
		}
	}

	return nil
}

func (w *DispatchWorker) processEvent(ctx context.Context, ev OutboxEvent) error {
	if ev.Recipient.Empty() {
		return w.handleEventError(ctx, ev, errors.New("missing_recipient"))
	}

	if err := w.notifier.Notify(ctx, ev.Recipient, ev.Subject, ev.EmailHTML, ev.SMSText); err != nil {
		return w.handleEventError(ctx, ev, err)
	}

	if err := w.outbox.MarkDone(ctx, ev.ID); err != nil {
		return err
	}
	w.metrics.IncDispatched()
	w.publishFeed(ev)
	return nil
}

func (w *DispatchWorker) handleEventError(ctx context.Context, ev OutboxEvent, err error) error {
	msg := err.Error()
	if ev.Attempts >= w.maxAttempts {
		w.logger.Error("notification dispatch abandoned", "kind", ev.Kind, "event", ev.ID, "err", msg)
		return w.outbox.MarkFailed(ctx, ev.ID, msg)
	}
	next := w.now().Add(w.retryBackoff(ev.Attempts))
	return w.outbox.MarkRetry(ctx, ev.ID, next, msg)
}

func (w *DispatchWorker) publishFeed(ev OutboxEvent) {
	if w.feed == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"event": "notification_dispatched",
		"data": map[string]any{
			"kind":          ev.Kind,
			"subject":       ev.Subject,
			"fingerprint":   hex.EncodeToString(ev.Fingerprint),
			"dispatched_at": w.now().Format(time.RFC3339),
		},
	})
	w.feed.Publish("notifications:feed", payload)
	w.feed.Publish("notifications:"+ev.Kind, payload)
}
