package payment

import (
	"context"
	"database/sql"
	"errors"
)

// Repository is the Postgres idempotency store backed by payment_webhooks.
type Repository interface {
	IdempotencyStore
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Claim(ctx context.Context, rec WebhookRecord) (bool, error) {
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO NOTHING
	RETURNING id;
	`

	payload := string(rec.Payload)
	if payload == "" {
		payload = "{}"
	}

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		rec.Provider,
		rec.EventID,
		rec.EventType,
		rec.ExternalID,
		payload,
	).Scan(&id)

	if err != nil {
		// Nothing returned means the row already existed.
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}

	return false, nil
}

func (r *repository) MarkProcessed(ctx context.Context, provider, eventID string) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now()
	WHERE provider = $1 AND event_id = $2;
	`

	_, err := r.db.ExecContext(ctx, q, provider, eventID)
	return err
}

func (r *repository) MarkFailed(ctx context.Context, provider, eventID, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $3
	WHERE provider = $1 AND event_id = $2;
	`

	_, err := r.db.ExecContext(ctx, q, provider, eventID, reason)
	return err
}

func (r *repository) Release(ctx context.Context, provider, eventID string) error {
	const q = `
	DELETE FROM payment_webhooks
	WHERE provider = $1 AND event_id = $2 AND processed_at IS NULL;
	`

	_, err := r.db.ExecContext(ctx, q, provider, eventID)
	return err
}
