package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotificationInProgress is returned while another request holds the
// claim on the same notification.
var ErrNotificationInProgress = errors.New("notification is being processed")

// ClaimLease bounds how long an unfinished claim blocks other attempts,
// so a crashed settle does not lock the invoice forever.
const ClaimLease = 5 * time.Minute

// Repository is the notification ledger. It makes callback handling
// idempotent: a notification already processed is reported as duplicate.
type Repository interface {
	SaveNotification(
		ctx context.Context,
		n *Notification,
		payload json.RawMessage,
		signatureValid bool,
	) (notificationID int64, isDuplicate bool, err error)

	MarkProcessed(ctx context.Context, notificationID int64) error
	MarkFailed(ctx context.Context, notificationID int64, reason string) error
	GetNotification(ctx context.Context, kind NotificationKind, invID string) (*NotificationRecord, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// SaveNotification records the callback and claims it for settling in one
// statement. A row that is already processed is reported as duplicate, a
// row claimed by a concurrent request yields ErrNotificationInProgress.
// Callbacks with an invalid signature are recorded but never claim.
func (r *repository) SaveNotification(
	ctx context.Context,
	n *Notification,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {

	const q = `
	INSERT INTO robokassa_notifications (
		kind,
		inv_id,
		out_sum,
		signature_value,
		signature_valid,
		payload,
		claimed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $5 THEN now() END)
	ON CONFLICT (kind, inv_id)
	DO UPDATE SET
		out_sum = EXCLUDED.out_sum,
		signature_value = EXCLUDED.signature_value,
		signature_valid = EXCLUDED.signature_valid,
		payload = EXCLUDED.payload,
		claimed_at = EXCLUDED.claimed_at,
		attempts = robokassa_notifications.attempts + 1
	WHERE robokassa_notifications.processed_at IS NULL
		AND (
			robokassa_notifications.claimed_at IS NULL
			OR robokassa_notifications.claimed_at < now() - make_interval(secs => $7)
		)
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		string(n.Kind),
		n.InvID,
		n.OutSum.String(),
		n.SignatureValue,
		signatureValid,
		[]byte(payload),
		ClaimLease.Seconds(),
	).Scan(&id)

	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	processed, err := r.isProcessed(ctx, n.Kind, n.InvID)
	if err != nil {
		return 0, false, err
	}
	if processed {
		return 0, true, nil
	}
	return 0, false, ErrNotificationInProgress
}

func (r *repository) isProcessed(ctx context.Context, kind NotificationKind, invID string) (bool, error) {
	const q = `
	SELECT processed_at IS NOT NULL
	FROM robokassa_notifications WHERE kind = $1 AND inv_id = $2
	`

	var processed bool
	if err := r.db.QueryRowContext(ctx, q, string(kind), invID).Scan(&processed); err != nil {
		return false, err
	}
	return processed, nil
}

func (r *repository) MarkProcessed(ctx context.Context, notificationID int64) error {
	const q = `
	UPDATE robokassa_notifications
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, notificationID)
	return err
}

func (r *repository) MarkFailed(ctx context.Context, notificationID int64, reason string) error {
	const q = `
	UPDATE robokassa_notifications
	SET process_error = $2, claimed_at = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, notificationID, reason)
	return err
}

func (r *repository) GetNotification(ctx context.Context, kind NotificationKind, invID string) (*NotificationRecord, error) {
	const q = `
	SELECT id, kind, inv_id, out_sum, signature_valid, payload, processed_at, process_error, created_at
	FROM robokassa_notifications WHERE kind = $1 AND inv_id = $2
	`

	var (
		rec          NotificationRecord
		kindValue    string
		processedAt  sql.NullTime
		processError sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, string(kind), invID).Scan(
		&rec.ID, &kindValue, &rec.InvID, &rec.OutSum, &rec.SignatureValid,
		&rec.Payload, &processedAt, &processError, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Kind = NotificationKind(kindValue)
	if processedAt.Valid {
		rec.ProcessedAt = &processedAt.Time
	}
	if processError.Valid {
		rec.ProcessError = &processError.String
	}
	return &rec, nil
}
