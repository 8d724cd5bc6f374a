package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microlend/backend/internal/jobs"
	"github.com/microlend/backend/internal/notify"
)

// OutboxRepository stores queued notification events. Enqueue is called by
// the domain services; the claim/mark calls belong to the dispatch worker.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, ev notify.Event) error {
	q := `
INSERT INTO notification_events (kind, recipient_email, recipient_phone, subject, email_html, sms_text, fingerprint, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,'pending')`
	_, err := r.pool.Exec(ctx, q,
		ev.Kind, ev.Recipient.Email, ev.Recipient.Phone, ev.Subject, ev.EmailHTML, ev.SMSText, ev.Fingerprint)
	return err
}

// ClaimPending marks up to limit due events as processing and returns them.
// SKIP LOCKED lets multiple dispatchers drain the queue without claiming
// the same event twice.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int32) ([]jobs.OutboxEvent, error) {
	q := `
WITH claimed AS (
  SELECT id FROM notification_events
  WHERE status = 'pending' AND available_at <= NOW()
  ORDER BY id
  LIMIT $1
  FOR UPDATE SKIP LOCKED
)
UPDATE notification_events e
SET status = 'processing', attempts = e.attempts + 1, updated_at = NOW()
FROM claimed
WHERE e.id = claimed.id
RETURNING e.id, e.kind, e.recipient_email, e.recipient_phone, e.subject, e.email_html, e.sms_text,
          e.fingerprint, e.status, e.attempts, COALESCE(e.last_error, ''), e.available_at`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]jobs.OutboxEvent, 0)
	for rows.Next() {
		var ev jobs.OutboxEvent
		if err := rows.Scan(
			&ev.ID, &ev.Kind, &ev.Recipient.Email, &ev.Recipient.Phone, &ev.Subject, &ev.EmailHTML, &ev.SMSText,
			&ev.Fingerprint, &ev.Status, &ev.Attempts, &ev.LastError, &ev.AvailableAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OutboxRepository) MarkDone(ctx context.Context, eventID int64) error {
	q := `UPDATE notification_events SET status = 'sent', updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, eventID)
	return err
}

func (r *OutboxRepository) MarkRetry(ctx context.Context, eventID int64, nextAvailableAt time.Time, lastError string) error {
	q := `UPDATE notification_events SET status = 'pending', available_at = $2, last_error = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, eventID, nextAvailableAt, lastError)
	return err
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, eventID int64, lastError string) error {
	q := `UPDATE notification_events SET status = 'failed', last_error = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, eventID, lastError)
	return err
}
