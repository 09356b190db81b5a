/**
 * @description
 * Data access layer for the narration service. Charges, disputes and timeline
 * events are stored as jsonb payloads next to the few columns we query on.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wcpay/narration-service/internal/domain"
)

var (
	ErrChargeNotFound  = errors.New("charge not found")
	ErrDisputeNotFound = errors.New("dispute not found")
)

const schema = `
	CREATE TABLE IF NOT EXISTS narration_charges (
		id TEXT PRIMARY KEY,
		payment_intent TEXT,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS narration_disputes (
		id TEXT PRIMARY KEY,
		charge_id TEXT,
		status TEXT NOT NULL,
		due_by TIMESTAMPTZ,
		reminder_sent_at TIMESTAMPTZ,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS narration_disputes_due_by_idx ON narration_disputes (due_by)
		WHERE reminder_sent_at IS NULL;
	CREATE TABLE IF NOT EXISTS narration_timeline_events (
		id UUID PRIMARY KEY,
		position BIGSERIAL,
		charge_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		occurred_at BIGINT NOT NULL,
		fingerprint TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	ALTER TABLE narration_timeline_events ADD COLUMN IF NOT EXISTS fingerprint TEXT;
	UPDATE narration_timeline_events SET fingerprint = 'row:' || id::text WHERE fingerprint IS NULL;
	ALTER TABLE narration_timeline_events
		DROP CONSTRAINT IF EXISTS narration_timeline_events_charge_id_event_type_occurred_at_key;
	CREATE UNIQUE INDEX IF NOT EXISTS narration_timeline_events_fingerprint_idx
		ON narration_timeline_events (charge_id, fingerprint);
`

// awaitingStatuses are the dispute states that still expect a merchant response.
var awaitingStatuses = []string{
	string(domain.DisputeNeedsResponse),
	string(domain.DisputeWarningNeedsResponse),
}

// PostgresRepository persists ingested payment records in Postgres.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the service tables when they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// UpsertCharge stores the latest copy of a charge. An embedded dispute is
// stored alongside it.
func (r *PostgresRepository) UpsertCharge(ctx context.Context, charge domain.Charge) error {
	payload, err := json.Marshal(charge)
	if err != nil {
		return fmt.Errorf("failed to encode charge: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO narration_charges (id, payment_intent, payload, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET payment_intent = EXCLUDED.payment_intent,
		    payload = EXCLUDED.payload,
		    updated_at = NOW()
	`, charge.ID, charge.PaymentIntent, payload)
	if err != nil {
		return err
	}

	if charge.Dispute != nil && charge.Dispute.ID != "" {
		return r.UpsertDispute(ctx, *charge.Dispute)
	}
	return nil
}

// FindChargeByID loads a charge. Charges can also be looked up by payment intent.
func (r *PostgresRepository) FindChargeByID(ctx context.Context, chargeID string) (*domain.Charge, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `
		SELECT payload FROM narration_charges
		WHERE id = $1 OR payment_intent = $1
		ORDER BY (id = $1) DESC
		LIMIT 1
	`, chargeID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChargeNotFound
		}
		return nil, err
	}

	charge, err := domain.DecodeCharge(payload)
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// UpsertDispute stores the latest copy of a dispute. A status change clears
// the reminder marker so a reopened response window is reminded again.
func (r *PostgresRepository) UpsertDispute(ctx context.Context, dispute domain.Dispute) error {
	payload, err := json.Marshal(dispute)
	if err != nil {
		return fmt.Errorf("failed to encode dispute: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO narration_disputes (id, charge_id, status, due_by, payload, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET charge_id = COALESCE(EXCLUDED.charge_id, narration_disputes.charge_id),
		    status = EXCLUDED.status,
		    due_by = EXCLUDED.due_by,
		    reminder_sent_at = CASE
		        WHEN narration_disputes.status = EXCLUDED.status THEN narration_disputes.reminder_sent_at
		        ELSE NULL
		    END,
		    payload = EXCLUDED.payload,
		    updated_at = NOW()
	`, dispute.ID, dispute.ChargeID, string(dispute.Status), dueByTime(dispute.EvidenceDetails.DueBy), payload)
	return err
}

// FindDisputeByID loads a dispute.
func (r *PostgresRepository) FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, "SELECT payload FROM narration_disputes WHERE id = $1", disputeID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}

	dispute, err := domain.DecodeDispute(payload)
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

// AppendTimelineEvent records an event for a charge. Redelivered events are
// ignored; the returned flag reports whether a row was written. Distinct events
// sharing a type and second are kept apart by their fingerprint.
func (r *PostgresRepository) AppendTimelineEvent(ctx context.Context, chargeID string, event domain.TimelineEvent) (bool, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("failed to encode timeline event: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO narration_timeline_events (id, charge_id, event_type, occurred_at, fingerprint, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (charge_id, fingerprint) DO NOTHING
	`, uuid.New(), chargeID, string(event.Type), event.Datetime, event.Fingerprint(), payload)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListTimelineEvents returns a charge's events in the order they happened.
func (r *PostgresRepository) ListTimelineEvents(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT payload FROM narration_timeline_events
		WHERE charge_id = $1
		ORDER BY occurred_at ASC, position ASC
	`, chargeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payloads []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return decodeEvents(payloads)
}

// ListDisputesDueBetween returns disputes awaiting a response whose evidence
// deadline falls in [from, to) and that have not been reminded yet.
func (r *PostgresRepository) ListDisputesDueBetween(ctx context.Context, from, to time.Time) ([]domain.Dispute, error) {
	rows, err := r.db.Query(ctx, `
		SELECT payload FROM narration_disputes
		WHERE status = ANY($1)
		  AND reminder_sent_at IS NULL
		  AND due_by >= $2
		  AND due_by < $3
		ORDER BY due_by ASC
	`, awaitingStatuses, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []domain.Dispute
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		dispute, err := domain.DecodeDispute(payload)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, dispute)
	}
	return disputes, rows.Err()
}

// MarkReminderSent stamps a dispute as reminded.
func (r *PostgresRepository) MarkReminderSent(ctx context.Context, disputeID string, sentAt time.Time) error {
	tag, err := r.db.Exec(ctx, "UPDATE narration_disputes SET reminder_sent_at = $2 WHERE id = $1", disputeID, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDisputeNotFound
	}
	return nil
}

func dueByTime(unix int64) *time.Time {
	if unix <= 0 {
		return nil
	}
	t := time.Unix(unix, 0).UTC()
	return &t
}

func decodeEvents(payloads []json.RawMessage) ([]domain.TimelineEvent, error) {
	if len(payloads) == 0 {
		return []domain.TimelineEvent{}, nil
	}
	raw, err := json.Marshal(payloads)
	if err != nil {
		return nil, err
	}
	return domain.DecodeTimelineEvents(raw)
}
