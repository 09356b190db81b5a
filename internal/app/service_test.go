package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/wcpay/narration-service/internal/domain"
	"github.com/wcpay/narration-service/internal/locale"
	"github.com/wcpay/narration-service/internal/store"
	"github.com/wcpay/narration-service/pkg/paymentsclient"
)

type memoryRepo struct {
	charges   map[string]domain.Charge
	disputes  map[string]domain.Dispute
	events    map[string][]domain.TimelineEvent
	reminded  map[string]time.Time
	upsertErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		charges:  map[string]domain.Charge{},
		disputes: map[string]domain.Dispute{},
		events:   map[string][]domain.TimelineEvent{},
		reminded: map[string]time.Time{},
	}
}

func (r *memoryRepo) UpsertCharge(ctx context.Context, charge domain.Charge) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.charges[charge.ID] = charge
	return nil
}

func (r *memoryRepo) FindChargeByID(ctx context.Context, chargeID string) (*domain.Charge, error) {
	charge, ok := r.charges[chargeID]
	if !ok {
		return nil, store.ErrChargeNotFound
	}
	return &charge, nil
}

func (r *memoryRepo) UpsertDispute(ctx context.Context, d domain.Dispute) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.disputes[d.ID] = d
	return nil
}

func (r *memoryRepo) FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	d, ok := r.disputes[disputeID]
	if !ok {
		return nil, store.ErrDisputeNotFound
	}
	return &d, nil
}

func (r *memoryRepo) AppendTimelineEvent(ctx context.Context, chargeID string, event domain.TimelineEvent) (bool, error) {
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	for _, existing := range r.events[chargeID] {
		if existing.Fingerprint() == event.Fingerprint() {
			return false, nil
		}
	}
	r.events[chargeID] = append(r.events[chargeID], event)
	return true, nil
}

func (r *memoryRepo) ListTimelineEvents(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error) {
	return append([]domain.TimelineEvent(nil), r.events[chargeID]...), nil
}

func (r *memoryRepo) ListDisputesDueBetween(ctx context.Context, from, to time.Time) ([]domain.Dispute, error) {
	var due []domain.Dispute
	for _, d := range r.disputes {
		if _, done := r.reminded[d.ID]; done {
			continue
		}
		at := time.Unix(d.EvidenceDetails.DueBy, 0)
		if !at.Before(from) && at.Before(to) {
			due = append(due, d)
		}
	}
	return due, nil
}

func (r *memoryRepo) MarkReminderSent(ctx context.Context, disputeID string, sentAt time.Time) error {
	r.reminded[disputeID] = sentAt
	return nil
}

type paymentsStub struct {
	charge   *domain.Charge
	dispute  *domain.Dispute
	events   []domain.TimelineEvent
	err      error
	requests int
}

func (p *paymentsStub) GetCharge(ctx context.Context, chargeID string) (domain.Charge, error) {
	p.requests++
	if p.err != nil {
		return domain.Charge{}, p.err
	}
	if p.charge == nil {
		return domain.Charge{}, paymentsclient.ErrNotFound
	}
	return *p.charge, nil
}

func (p *paymentsStub) GetDispute(ctx context.Context, disputeID string) (domain.Dispute, error) {
	p.requests++
	if p.err != nil {
		return domain.Dispute{}, p.err
	}
	if p.dispute == nil {
		return domain.Dispute{}, paymentsclient.ErrNotFound
	}
	return *p.dispute, nil
}

func (p *paymentsStub) ListTimeline(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error) {
	p.requests++
	if p.err != nil {
		return nil, p.err
	}
	return p.events, nil
}

var testNow = time.Date(2024, time.May, 8, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, payments PaymentsClient, cache RenderCache) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := locale.New(locale.Config{Now: func() time.Time { return testNow }})
	return NewService(repo, payments, cache, f, "usd", logger)
}

func capturedEvent() domain.TimelineEvent {
	return domain.TimelineEvent{
		Type:     domain.EventCaptured,
		Datetime: 1715299200,
		Amount:   6300,
		Currency: "usd",
		Fee:      350,
	}
}

func TestTimeline_RendersAndCaches(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["ch_1"] = []domain.TimelineEvent{capturedEvent()}
	svc := newTestService(repo, nil, NewMemoryRenderCache(time.Minute))

	items, err := svc.Timeline(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items for a capture, got %d", len(items))
	}

	repo.events["ch_1"] = nil
	cached, err := svc.Timeline(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(cached) != 3 || cached[2].Headline != items[2].Headline {
		t.Fatalf("expected cached render, got %+v", cached)
	}
}

func TestTimeline_IngestInvalidatesCache(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, NewMemoryRenderCache(time.Minute))
	ctx := context.Background()

	items, err := svc.Timeline(ctx, "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty timeline, got %d items", len(items))
	}

	if err := svc.IngestTimelineEvent(ctx, "ch_1", capturedEvent()); err != nil {
		t.Fatalf("IngestTimelineEvent returned error: %v", err)
	}
	items, err = svc.Timeline(ctx, "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected fresh render after ingest, got %d items", len(items))
	}
}

func TestTimeline_CachedRenderMatchesFreshRender(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["ch_1"] = []domain.TimelineEvent{capturedEvent()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := locale.New(locale.Config{Location: time.FixedZone("EST", -5*60*60), Now: func() time.Time { return testNow }})
	svc := NewService(repo, nil, NewMemoryRenderCache(time.Minute), f, "usd", logger)

	fresh, err := svc.Timeline(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	cached, err := svc.Timeline(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if !reflect.DeepEqual(fresh, cached) {
		t.Fatalf("cached render differs from fresh render\nfresh:  %+v\ncached: %+v", fresh, cached)
	}
}

func TestIngestTimelineEvent_KeepsDistinctEventsInSameSecond(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	first := domain.TimelineEvent{Type: domain.EventPartialRefund, Datetime: 1715299200, AmountRefunded: 100, Currency: "usd"}
	second := first
	second.AmountRefunded = 200

	for _, event := range []domain.TimelineEvent{first, second, first} {
		if err := svc.IngestTimelineEvent(ctx, "ch_1", event); err != nil {
			t.Fatalf("IngestTimelineEvent returned error: %v", err)
		}
	}

	stored := repo.events["ch_1"]
	if len(stored) != 2 {
		t.Fatalf("expected both refunds and no redelivered duplicate, got %+v", stored)
	}
	if stored[0].AmountRefunded != 100 || stored[1].AmountRefunded != 200 {
		t.Fatalf("unexpected stored refunds %+v", stored)
	}

	items, err := svc.Timeline(ctx, "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected deposit, status and main items for each refund, got %d", len(items))
	}
}

func TestTimeline_FallsBackToPaymentsAPI(t *testing.T) {
	repo := newMemoryRepo()
	payments := &paymentsStub{events: []domain.TimelineEvent{capturedEvent()}}
	svc := newTestService(repo, payments, nil)

	items, err := svc.Timeline(context.Background(), "ch_remote")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected upstream events to render, got %d items", len(items))
	}
	if len(repo.events["ch_remote"]) != 1 {
		t.Fatalf("expected fetched events to be stored, got %d", len(repo.events["ch_remote"]))
	}
}

func TestTimeline_UsesIssuerAsBankName(t *testing.T) {
	repo := newMemoryRepo()
	repo.charges["ch_1"] = domain.Charge{
		ID: "ch_1",
		PaymentMethodDetails: &domain.PaymentMethodDetails{
			Type: domain.PaymentMethodCard,
			Card: &domain.CardDetails{Issuer: "Chase Bank"},
		},
	}
	repo.events["ch_1"] = []domain.TimelineEvent{{Type: domain.EventDisputeWon, Datetime: 1715299200, Amount: 6300, Currency: "usd", Fee: 1500}}
	svc := newTestService(repo, nil, nil)

	items, err := svc.Timeline(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	last := items[len(items)-1]
	if last.Headline != "Dispute won! Chase Bank ruled in your favor." {
		t.Fatalf("unexpected headline %q", last.Headline)
	}
}

func TestTimeline_RejectsEmptyID(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil, nil)
	if _, err := svc.Timeline(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty charge ID")
	}
}

func TestFees(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["ch_1"] = []domain.TimelineEvent{{Type: domain.EventAuthorized, Datetime: 1}, capturedEvent()}
	svc := newTestService(repo, nil, nil)

	view, err := svc.Fees(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Fees returned error: %v", err)
	}
	if view.Fee != "Fee: $3.50" || view.Net != "Net payout: $59.50" {
		t.Fatalf("unexpected fee view %+v", view)
	}
	if view.ChargeID != "ch_1" || view.Rows == nil {
		t.Fatalf("expected charge id and non-nil rows, got %+v", view)
	}
}

func TestFees_NoCapture(t *testing.T) {
	repo := newMemoryRepo()
	repo.events["ch_1"] = []domain.TimelineEvent{{Type: domain.EventAuthorized, Datetime: 1}}
	svc := newTestService(repo, nil, nil)

	if _, err := svc.Fees(context.Background(), "ch_1"); !errors.Is(err, ErrNoCapture) {
		t.Fatalf("expected ErrNoCapture, got %v", err)
	}
}

func TestDetails_NotFoundUpstream(t *testing.T) {
	payments := &paymentsStub{}
	svc := newTestService(newMemoryRepo(), payments, nil)

	_, err := svc.Details(context.Background(), "ch_missing")
	if !errors.Is(err, store.ErrChargeNotFound) {
		t.Fatalf("expected ErrChargeNotFound, got %v", err)
	}
	if payments.requests != 1 {
		t.Fatalf("expected one upstream request, got %d", payments.requests)
	}
}

func TestDetails_UpstreamFailureIsWrapped(t *testing.T) {
	upstreamErr := errors.New("boom")
	svc := newTestService(newMemoryRepo(), &paymentsStub{err: upstreamErr}, nil)

	_, err := svc.Details(context.Background(), "ch_1")
	if !errors.Is(err, upstreamErr) || errors.Is(err, store.ErrChargeNotFound) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}

func TestDetails_RendersCard(t *testing.T) {
	repo := newMemoryRepo()
	repo.charges["ch_1"] = domain.Charge{
		ID: "ch_1",
		PaymentMethodDetails: &domain.PaymentMethodDetails{
			Type: domain.PaymentMethodCard,
			Card: &domain.CardDetails{Brand: "visa", Last4: "4242", Issuer: "Chase Bank"},
		},
	}
	svc := newTestService(repo, nil, nil)

	view, err := svc.Details(context.Background(), "ch_1")
	if err != nil {
		t.Fatalf("Details returned error: %v", err)
	}
	if view.BankName != "Chase Bank" || len(view.Details) == 0 || view.PaymentMethod == "" {
		t.Fatalf("unexpected details view %+v", view)
	}
}

func TestDisputeNarrative_UsesChargeBank(t *testing.T) {
	repo := newMemoryRepo()
	repo.charges["ch_1"] = domain.Charge{
		ID: "ch_1",
		PaymentMethodDetails: &domain.PaymentMethodDetails{
			Type: domain.PaymentMethodCard,
			Card: &domain.CardDetails{Issuer: "Chase Bank"},
		},
	}
	repo.disputes["dp_1"] = domain.Dispute{
		ID:              "dp_1",
		ChargeID:        "ch_1",
		Status:          domain.DisputeNeedsResponse,
		Reason:          domain.ReasonNoncompliant,
		EvidenceDetails: domain.EvidenceDetails{DueBy: 1715299200},
	}
	svc := newTestService(repo, nil, nil)

	narrative, err := svc.DisputeNarrative(context.Background(), "dp_1", true)
	if err != nil {
		t.Fatalf("DisputeNarrative returned error: %v", err)
	}
	if !strings.Contains(narrative.NoticeText, "Chase Bank") {
		t.Fatalf("expected bank name in notice, got %q", narrative.NoticeText)
	}
	if !narrative.RequiresAcknowledgement {
		t.Fatal("expected acknowledgement to be required")
	}
	if narrative.Countdown != "(2 days left to respond)" {
		t.Fatalf("unexpected countdown %q", narrative.Countdown)
	}
}

func TestDisputeNarrative_MissingChargeStillRenders(t *testing.T) {
	repo := newMemoryRepo()
	repo.disputes["dp_1"] = domain.Dispute{ID: "dp_1", ChargeID: "ch_gone", Status: domain.DisputeWon, Reason: domain.ReasonFraudulent}
	svc := newTestService(repo, nil, nil)

	narrative, err := svc.DisputeNarrative(context.Background(), "dp_1", false)
	if err != nil {
		t.Fatalf("DisputeNarrative returned error: %v", err)
	}
	if narrative.NoticeText != "" || len(narrative.Actions) != 0 {
		t.Fatalf("closed dispute should have no notice or actions, got %+v", narrative)
	}
}

func TestDisputeNarrative_NotFound(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil, nil)
	if _, err := svc.DisputeNarrative(context.Background(), "dp_missing", false); !errors.Is(err, store.ErrDisputeNotFound) {
		t.Fatalf("expected ErrDisputeNotFound, got %v", err)
	}
}

func TestIngestCharge_StoresEmbeddedState(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil, nil)

	if err := svc.IngestCharge(context.Background(), domain.Charge{ID: "ch_1"}); err != nil {
		t.Fatalf("IngestCharge returned error: %v", err)
	}
	if _, ok := repo.charges["ch_1"]; !ok {
		t.Fatal("expected charge to be stored")
	}
	if err := svc.IngestCharge(context.Background(), domain.Charge{}); err == nil {
		t.Fatal("expected error for charge without ID")
	}
}
