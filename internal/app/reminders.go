package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wcpay/narration-service/internal/dispute"
	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/store"
)

// RoutingKeyReminderDue is the routing key of dispute reminder events.
const RoutingKeyReminderDue = "disputes.reminder.due"

// DisputeReminderEvent asks downstream notifiers to nudge a merchant about an
// evidence deadline.
type DisputeReminderEvent struct {
	ID        string    `json:"id"`
	DisputeID string    `json:"dispute_id"`
	ChargeID  string    `json:"charge_id,omitempty"`
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	DueBy     time.Time `json:"due_by"`
	DueByText string    `json:"due_by_text"`
	Countdown string    `json:"countdown"`
	Notice    string    `json:"notice"`
	CreatedAt time.Time `json:"created_at"`
}

// ReminderResult summarizes a reminder run.
type ReminderResult struct {
	Evaluated int `json:"evaluated"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// SendDueReminders publishes a reminder for every dispute whose evidence is due
// within window and marks it as reminded. Failures on one dispute do not stop
// the run.
func (s *Service) SendDueReminders(ctx context.Context, publisher EventPublisher, exchange string, window time.Duration) (*ReminderResult, error) {
	if publisher == nil {
		return nil, errors.New("reminder publisher is not configured")
	}

	now := s.formatter.Now()
	disputes, err := s.repo.ListDisputesDueBetween(ctx, now.UTC(), now.Add(window).UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes due: %w", err)
	}

	result := &ReminderResult{Evaluated: len(disputes)}
	for _, d := range disputes {
		if !dispute.IsAwaitingResponse(d.Status) {
			continue
		}

		event := s.reminderEvent(ctx, d, now)
		if err := publisher.Publish(ctx, exchange, RoutingKeyReminderDue, event); err != nil {
			s.logger.Error("failed to publish dispute reminder", "dispute_id", d.ID, "error", err)
			result.Failed++
			continue
		}
		if err := s.repo.MarkReminderSent(ctx, d.ID, now.UTC()); err != nil {
			s.logger.Error("failed to mark dispute reminder sent", "dispute_id", d.ID, "error", err)
			result.Failed++
			continue
		}
		result.Published++
	}
	return result, nil
}

func (s *Service) reminderEvent(ctx context.Context, d domain.Dispute, now time.Time) DisputeReminderEvent {
	var pm *domain.PaymentMethodDetails
	if d.ChargeID != "" {
		if charge, err := s.repo.FindChargeByID(ctx, d.ChargeID); err == nil {
			pm = charge.PaymentMethodDetails
		} else if !errors.Is(err, store.ErrChargeNotFound) {
			s.logger.Warn("failed to load charge for dispute reminder", "dispute_id", d.ID, "error", err)
		}
	}

	narrative := s.RenderDispute(d, pm, false)
	return DisputeReminderEvent{
		ID:        uuid.NewString(),
		DisputeID: d.ID,
		ChargeID:  d.ChargeID,
		Kind:      string(narrative.Kind),
		Reason:    narrative.ReasonDisplay,
		DueBy:     time.Unix(d.EvidenceDetails.DueBy, 0).UTC(),
		DueByText: narrative.DueBy,
		Countdown: narrative.Countdown,
		Notice:    narrative.NoticeText,
		CreatedAt: now.UTC(),
	}
}
