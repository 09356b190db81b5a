/**
 * @description
 * Core application logic for the narration service. Loads charges, disputes
 * and timeline events from the local store (falling back to the upstream
 * payments API) and runs them through the formatting pipeline.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wcpay/narration-service/internal/dispute"
	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/fees"
	"github.com/wcpay/narration-service/internal/locale"
	"github.com/wcpay/narration-service/internal/paymentmethod"
	"github.com/wcpay/narration-service/internal/store"
	"github.com/wcpay/narration-service/internal/timeline"
	"github.com/wcpay/narration-service/pkg/paymentsclient"
)

// ErrNoCapture is returned when a charge has no captured event to derive fees from.
var ErrNoCapture = errors.New("charge has no captured event")

// Repository defines the database operations the service needs.
type Repository interface {
	UpsertCharge(ctx context.Context, charge domain.Charge) error
	FindChargeByID(ctx context.Context, chargeID string) (*domain.Charge, error)
	UpsertDispute(ctx context.Context, d domain.Dispute) error
	FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error)
	AppendTimelineEvent(ctx context.Context, chargeID string, event domain.TimelineEvent) (bool, error)
	ListTimelineEvents(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error)
	ListDisputesDueBetween(ctx context.Context, from, to time.Time) ([]domain.Dispute, error)
	MarkReminderSent(ctx context.Context, disputeID string, sentAt time.Time) error
}

// PaymentsClient fetches records the local store has not ingested.
type PaymentsClient interface {
	GetCharge(ctx context.Context, chargeID string) (domain.Charge, error)
	GetDispute(ctx context.Context, disputeID string) (domain.Dispute, error)
	ListTimeline(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error)
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// FeesView is the fee summary of a captured payment.
type FeesView struct {
	ChargeID string     `json:"charge_id,omitempty"`
	Fee      string     `json:"fee"`
	Rows     []fees.Row `json:"rows"`
	Tax      string     `json:"tax,omitempty"`
	FX       string     `json:"fx,omitempty"`
	Net      string     `json:"net"`
}

// DetailsView describes how a charge was paid.
type DetailsView struct {
	ChargeID      string                 `json:"charge_id"`
	PaymentMethod string                 `json:"payment_method"`
	BankName      string                 `json:"bank_name,omitempty"`
	Details       []paymentmethod.Detail `json:"details"`
}

// Service provides the narration use cases.
type Service struct {
	repo          Repository
	payments      PaymentsClient
	cache         RenderCache
	formatter     *locale.Formatter
	mapper        *timeline.Mapper
	storeCurrency string
	logger        *slog.Logger
}

// NewService creates a new narration service. payments and cache may be nil.
func NewService(repo Repository, payments PaymentsClient, cache RenderCache, formatter *locale.Formatter, storeCurrency string, logger *slog.Logger) *Service {
	if formatter == nil {
		formatter = locale.Default()
	}
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:          repo,
		payments:      payments,
		cache:         cache,
		formatter:     formatter,
		mapper:        timeline.NewMapper(formatter),
		storeCurrency: strings.ToLower(strings.TrimSpace(storeCurrency)),
		logger:        logger,
	}
}

// Formatter returns the formatter the service renders with.
func (s *Service) Formatter() *locale.Formatter {
	return s.formatter
}

// Timeline renders the display timeline of a charge.
func (s *Service) Timeline(ctx context.Context, chargeID string) ([]timeline.Item, error) {
	chargeID = strings.TrimSpace(chargeID)
	if chargeID == "" {
		return nil, errors.New("charge ID cannot be empty")
	}

	key := timelineCacheKey(chargeID)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("render cache read failed", "key", key, "error", err)
	} else if ok {
		var items []timeline.Item
		if err := json.Unmarshal(cached, &items); err == nil {
			loc := s.formatter.Location()
			for i := range items {
				items[i].Date = items[i].Date.In(loc)
			}
			return items, nil
		}
		s.logger.Warn("discarding unreadable cached timeline", "key", key)
	}

	events, err := s.loadEvents(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	bankName := ""
	if charge, err := s.loadCharge(ctx, chargeID); err == nil {
		bankName = paymentmethod.BankName(charge.PaymentMethodDetails)
	} else if !errors.Is(err, store.ErrChargeNotFound) {
		return nil, err
	}

	items := s.RenderTimeline(events, bankName)
	if encoded, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, encoded); err != nil {
			s.logger.Warn("render cache write failed", "key", key, "error", err)
		}
	}
	return items, nil
}

// Fees renders the fee summary of a charge's captured event.
func (s *Service) Fees(ctx context.Context, chargeID string) (*FeesView, error) {
	events, err := s.loadEvents(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == domain.EventCaptured {
			view := s.RenderFees(events[i])
			view.ChargeID = chargeID
			return &view, nil
		}
	}
	return nil, ErrNoCapture
}

// Details renders the payment method details of a charge.
func (s *Service) Details(ctx context.Context, chargeID string) (*DetailsView, error) {
	charge, err := s.loadCharge(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	view := &DetailsView{
		ChargeID: charge.ID,
		BankName: paymentmethod.BankName(charge.PaymentMethodDetails),
		Details:  paymentmethod.Details(charge.PaymentMethodDetails, charge.BillingDetails),
	}
	if charge.PaymentMethodDetails != nil {
		view.PaymentMethod = paymentmethod.Label(charge.PaymentMethodDetails.Type)
	}
	return view, nil
}

// DisputeNarrative composes the merchant-facing copy for a dispute.
func (s *Service) DisputeNarrative(ctx context.Context, disputeID string, detailsView bool) (*dispute.Narrative, error) {
	d, err := s.loadDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	var pm *domain.PaymentMethodDetails
	if d.ChargeID != "" {
		charge, err := s.loadCharge(ctx, d.ChargeID)
		switch {
		case err == nil:
			pm = charge.PaymentMethodDetails
		case errors.Is(err, store.ErrChargeNotFound):
			s.logger.Debug("dispute charge not found; narrating without payment method", "dispute_id", d.ID, "charge_id", d.ChargeID)
		default:
			return nil, err
		}
	}

	narrative := s.RenderDispute(*d, pm, detailsView)
	return &narrative, nil
}

// RenderTimeline maps events to display items without touching storage.
func (s *Service) RenderTimeline(events []domain.TimelineEvent, bankName string) []timeline.Item {
	items := s.mapper.MapEvents(events, bankName)
	if items == nil {
		items = []timeline.Item{}
	}
	return items
}

// RenderFees summarises the fees of a captured event without touching storage.
func (s *Service) RenderFees(event domain.TimelineEvent) FeesView {
	_, netCurrency := fees.NetAmount(event)
	if netCurrency == "" {
		netCurrency = s.storeCurrency
	}

	view := FeesView{
		Fee:  fees.ComposeFeeString(s.formatter, event),
		Rows: fees.Breakdown(s.formatter, event.FeeRates, netCurrency),
		FX:   timeline.ComposeFXString(s.formatter, event),
		Net:  fees.ComposeNetString(s.formatter, event),
	}
	if view.Rows == nil {
		view.Rows = []fees.Row{}
	}
	if event.FeeRates != nil {
		view.Tax = fees.ComposeTaxString(s.formatter, event.FeeRates.Tax)
	}
	return view
}

// RenderDispute composes a dispute narrative without touching storage.
func (s *Service) RenderDispute(d domain.Dispute, pm *domain.PaymentMethodDetails, detailsView bool) dispute.Narrative {
	in := dispute.Input{
		Dispute:     d,
		BankName:    paymentmethod.BankName(pm),
		DetailsView: detailsView,
	}
	if pm != nil {
		in.PaymentMethod = pm.Type
	}
	return dispute.Compose(s.formatter, in)
}

// IngestCharge stores a charge update and drops its cached renders.
func (s *Service) IngestCharge(ctx context.Context, charge domain.Charge) error {
	if charge.ID == "" {
		return errors.New("charge ID cannot be empty")
	}
	if err := s.repo.UpsertCharge(ctx, charge); err != nil {
		return fmt.Errorf("failed to store charge %s: %w", charge.ID, err)
	}
	s.InvalidateCharge(ctx, charge.ID)
	return nil
}

// IngestDispute stores a dispute update.
func (s *Service) IngestDispute(ctx context.Context, d domain.Dispute) error {
	if d.ID == "" {
		return errors.New("dispute ID cannot be empty")
	}
	if err := s.repo.UpsertDispute(ctx, d); err != nil {
		return fmt.Errorf("failed to store dispute %s: %w", d.ID, err)
	}
	if d.ChargeID != "" {
		s.InvalidateCharge(ctx, d.ChargeID)
	}
	return nil
}

// IngestTimelineEvent appends an event to a charge's timeline.
func (s *Service) IngestTimelineEvent(ctx context.Context, chargeID string, event domain.TimelineEvent) error {
	if chargeID == "" {
		return errors.New("charge ID cannot be empty")
	}
	inserted, err := s.repo.AppendTimelineEvent(ctx, chargeID, event)
	if err != nil {
		return fmt.Errorf("failed to append timeline event for %s: %w", chargeID, err)
	}
	if inserted {
		s.InvalidateCharge(ctx, chargeID)
	}
	return nil
}

// InvalidateCharge drops every cached render for a charge.
func (s *Service) InvalidateCharge(ctx context.Context, chargeID string) {
	if err := s.cache.Delete(ctx, timelineCacheKey(chargeID)); err != nil {
		s.logger.Warn("render cache invalidation failed", "charge_id", chargeID, "error", err)
	}
}

func (s *Service) loadCharge(ctx context.Context, chargeID string) (*domain.Charge, error) {
	charge, err := s.repo.FindChargeByID(ctx, chargeID)
	if err == nil || !errors.Is(err, store.ErrChargeNotFound) || s.payments == nil {
		return charge, err
	}

	fetched, err := s.payments.GetCharge(ctx, chargeID)
	if err != nil {
		if errors.Is(err, paymentsclient.ErrNotFound) {
			return nil, store.ErrChargeNotFound
		}
		return nil, fmt.Errorf("failed to fetch charge %s: %w", chargeID, err)
	}
	if err := s.repo.UpsertCharge(ctx, fetched); err != nil {
		s.logger.Warn("failed to cache fetched charge", "charge_id", chargeID, "error", err)
	}
	return &fetched, nil
}

func (s *Service) loadDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	d, err := s.repo.FindDisputeByID(ctx, disputeID)
	if err == nil || !errors.Is(err, store.ErrDisputeNotFound) || s.payments == nil {
		return d, err
	}

	fetched, err := s.payments.GetDispute(ctx, disputeID)
	if err != nil {
		if errors.Is(err, paymentsclient.ErrNotFound) {
			return nil, store.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to fetch dispute %s: %w", disputeID, err)
	}
	if err := s.repo.UpsertDispute(ctx, fetched); err != nil {
		s.logger.Warn("failed to cache fetched dispute", "dispute_id", disputeID, "error", err)
	}
	return &fetched, nil
}

func (s *Service) loadEvents(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error) {
	events, err := s.repo.ListTimelineEvents(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 || s.payments == nil {
		return events, nil
	}

	fetched, err := s.payments.ListTimeline(ctx, chargeID)
	if err != nil {
		if errors.Is(err, paymentsclient.ErrNotFound) {
			return events, nil
		}
		return nil, fmt.Errorf("failed to fetch timeline for %s: %w", chargeID, err)
	}
	for _, event := range fetched {
		if _, err := s.repo.AppendTimelineEvent(ctx, chargeID, event); err != nil {
			s.logger.Warn("failed to cache fetched timeline event", "charge_id", chargeID, "type", event.Type, "error", err)
		}
	}
	return fetched, nil
}

func timelineCacheKey(chargeID string) string {
	return "timeline:" + chargeID
}
