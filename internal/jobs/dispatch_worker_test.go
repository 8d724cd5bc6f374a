package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/microlend/backend/internal/notify"
)

type fakeOutboxRepo struct {
	events    []OutboxEvent
	doneIDs   []int64
	retryIDs  []int64
	retryAt   []time.Time
	failedIDs []int64
	lastError string
}

func (r *fakeOutboxRepo) ClaimPending(_ context.Context, _ int32) ([]OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeOutboxRepo) MarkDone(_ context.Context, eventID int64) error {
	r.doneIDs = append(r.doneIDs, eventID)
	return nil
}

func (r *fakeOutboxRepo) MarkRetry(_ context.Context, eventID int64, nextAvailableAt time.Time, lastError string) error {
	r.retryIDs = append(r.retryIDs, eventID)
	r.retryAt = append(r.retryAt, nextAvailableAt)
	r.lastError = lastError
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, eventID int64, lastError string) error {
	r.failedIDs = append(r.failedIDs, eventID)
	r.lastError = lastError
	return nil
}

type failingNotifier struct {
	err error
}

func (n *failingNotifier) Notify(_ context.Context, _ notify.Recipient, _, _, _ string) error {
	return n.err
}

type feedMock struct {
	topics []string
}

func (f *feedMock) Publish(topic string, _ []byte) {
	f.topics = append(f.topics, topic)
}

func queuedEvent(id int64, attempts int32) OutboxEvent {
	return OutboxEvent{
		ID:        id,
		Kind:      notify.KindLatePayment,
		Recipient: notify.Recipient{Email: "b@x.test"},
		Subject:   "Payment Overdue",
		Attempts:  attempts,
	}
}

func TestDispatchRunOnceSuccess(t *testing.T) {
	outbox := &fakeOutboxRepo{events: []OutboxEvent{queuedEvent(1, 1)}}
	feed := &feedMock{}
	worker := NewDispatchWorker(outbox, &notifierMock{}, feed, nil, testLogger(), 5)

	if err := worker.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.doneIDs) != 1 || outbox.doneIDs[0] != 1 {
		t.Fatalf("expected event marked done")
	}
	if len(feed.topics) != 2 || feed.topics[0] != "notifications:feed" || feed.topics[1] != "notifications:late_payment" {
		t.Fatalf("expected feed publish on both topics, got %v", feed.topics)
	}
}

func TestDispatchRunOnceRetryOnDeliveryError(t *testing.T) {
	outbox := &fakeOutboxRepo{events: []OutboxEvent{queuedEvent(1, 2)}}
	worker := NewDispatchWorker(outbox, &failingNotifier{err: errors.New("smtp down")}, nil, nil, testLogger(), 5)

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	worker.now = func() time.Time { return base }

	if err := worker.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.retryIDs) != 1 || outbox.retryIDs[0] != 1 {
		t.Fatalf("expected event marked for retry")
	}
	if want := base.Add(30 * time.Second); !outbox.retryAt[0].Equal(want) {
		t.Fatalf("expected linear backoff to %v, got %v", want, outbox.retryAt[0])
	}
}

func TestDispatchRunOnceTerminalFailure(t *testing.T) {
	outbox := &fakeOutboxRepo{events: []OutboxEvent{queuedEvent(9, 5)}}
	worker := NewDispatchWorker(outbox, &failingNotifier{err: errors.New("smtp down")}, nil, nil, testLogger(), 5)

	if err := worker.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.failedIDs) != 1 || outbox.failedIDs[0] != 9 {
		t.Fatalf("expected event abandoned after max attempts")
	}
	if outbox.lastError != "smtp down" {
		t.Fatalf("expected last error recorded, got %q", outbox.lastError)
	}
}

func TestDispatchRunOnceMissingRecipient(t *testing.T) {
	ev := queuedEvent(3, 1)
	ev.Recipient = notify.Recipient{}
	outbox := &fakeOutboxRepo{events: []OutboxEvent{ev}}
	worker := NewDispatchWorker(outbox, &notifierMock{}, nil, nil, testLogger(), 5)

	if err := worker.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(outbox.retryIDs) != 1 {
		t.Fatalf("expected recipientless event scheduled for retry")
	}
	if outbox.lastError != "missing_recipient" {
		t.Fatalf("expected missing_recipient error, got %q", outbox.lastError)
	}
}
