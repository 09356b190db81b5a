/**
 * @description
 * Timeline event records as emitted by the payments backend. Events are read-only
 * view models: they arrive fresh on every fetch or message and are never mutated
 * once handed to the timeline mapper.
 *
 * @notes
 * - Amounts are int64 minor units (cents for USD, whole yen for JPY).
 * - Optional numeric fields default to zero when absent from the payload.
 */
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// EventType is the closed vocabulary of timeline event tags.
type EventType string

const (
	EventStarted                   EventType = "started"
	EventAuthorized                EventType = "authorized"
	EventAuthorizationVoided       EventType = "authorization_voided"
	EventAuthorizationExpired      EventType = "authorization_expired"
	EventCaptured                  EventType = "captured"
	EventPartialRefund             EventType = "partial_refund"
	EventFullRefund                EventType = "full_refund"
	EventRefundFailed              EventType = "refund_failed"
	EventFailed                    EventType = "failed"
	EventDisputeNeedsResponse      EventType = "dispute_needs_response"
	EventDisputeInReview           EventType = "dispute_in_review"
	EventDisputeWon                EventType = "dispute_won"
	EventDisputeLost               EventType = "dispute_lost"
	EventDisputeAccepted           EventType = "dispute_accepted"
	EventDisputeWarningClosed      EventType = "dispute_warning_closed"
	EventDisputeChargeRefunded     EventType = "dispute_charge_refunded"
	EventFinancingPaydown          EventType = "financing_paydown"
	EventFraudOutcomeReview        EventType = "fraud_outcome_review"
	EventFraudOutcomeBlock         EventType = "fraud_outcome_block"
	EventFraudOutcomeManualApprove EventType = "fraud_outcome_manual_approve"
	EventFraudOutcomeManualBlock   EventType = "fraud_outcome_manual_block"
)

// KnownEventTypes lists every tag the mapper has a branch for.
var KnownEventTypes = []EventType{
	EventStarted,
	EventAuthorized,
	EventAuthorizationVoided,
	EventAuthorizationExpired,
	EventCaptured,
	EventPartialRefund,
	EventFullRefund,
	EventRefundFailed,
	EventFailed,
	EventDisputeNeedsResponse,
	EventDisputeInReview,
	EventDisputeWon,
	EventDisputeLost,
	EventDisputeAccepted,
	EventDisputeWarningClosed,
	EventDisputeChargeRefunded,
	EventFinancingPaydown,
	EventFraudOutcomeReview,
	EventFraudOutcomeBlock,
	EventFraudOutcomeManualApprove,
	EventFraudOutcomeManualBlock,
}

// Known reports whether the tag belongs to the closed vocabulary.
func (t EventType) Known() bool {
	for _, known := range KnownEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TimelineEvent is a single backend-emitted timeline record.
type TimelineEvent struct {
	ID                 string              `json:"id,omitempty"`
	Type               EventType           `json:"type"`
	Datetime           int64               `json:"datetime"`
	Amount             int64               `json:"amount,omitempty"`
	AmountCaptured     int64               `json:"amount_captured,omitempty"`
	AmountRefunded     int64               `json:"amount_refunded,omitempty"`
	Currency           string              `json:"currency,omitempty"`
	Fee                int64               `json:"fee,omitempty"`
	FeeRates           *FeeRates           `json:"fee_rates,omitempty"`
	TransactionDetails *TransactionDetails `json:"transaction_details,omitempty"`
	Deposit            *DepositRef         `json:"deposit,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	DisputeID          string              `json:"dispute_id,omitempty"`
	EvidenceDueBy      int64               `json:"evidence_due_by,omitempty"`
	LoanID             string              `json:"loan_id,omitempty"`
	User               *EventUser          `json:"user,omitempty"`
	RulesetResults     map[string]string   `json:"ruleset_results,omitempty"`
}

// DepositRef links an event to the payout it was settled in.
type DepositRef struct {
	ID          string `json:"id"`
	ArrivalDate int64  `json:"arrival_date"`
}

// EventUser identifies the store admin behind a manual fraud decision.
type EventUser struct {
	Username string `json:"username"`
}

// TransactionDetails carries the store-currency and customer-currency projections
// of a money movement.
type TransactionDetails struct {
	CustomerCurrency       string `json:"customer_currency"`
	CustomerAmount         int64  `json:"customer_amount"`
	CustomerAmountCaptured int64  `json:"customer_amount_captured"`
	CustomerFee            int64  `json:"customer_fee"`
	StoreCurrency          string `json:"store_currency"`
	StoreAmount            int64  `json:"store_amount"`
	StoreAmountCaptured    int64  `json:"store_amount_captured"`
	StoreFee               int64  `json:"store_fee"`
}

// CapturedAmount returns amount_captured, falling back to amount.
func (e TimelineEvent) CapturedAmount() int64 {
	if e.AmountCaptured != 0 {
		return e.AmountCaptured
	}
	return e.Amount
}

// IsFX reports whether the customer paid in a currency other than the store's
// settlement currency.
func (e TimelineEvent) IsFX() bool {
	td := e.TransactionDetails
	if td == nil {
		return false
	}
	customer := strings.TrimSpace(td.CustomerCurrency)
	store := strings.TrimSpace(td.StoreCurrency)
	if customer == "" || store == "" {
		return false
	}
	return !strings.EqualFold(customer, store)
}

// EventCurrency returns the event's currency, falling back to the customer and
// then the store currency from transaction_details.
func (e TimelineEvent) EventCurrency() string {
	if c := strings.TrimSpace(e.Currency); c != "" {
		return c
	}
	if td := e.TransactionDetails; td != nil {
		if td.CustomerCurrency != "" {
			return td.CustomerCurrency
		}
		return td.StoreCurrency
	}
	return ""
}

// Fingerprint identifies the event for deduplication. Events that carry an id
// use it; others hash their canonical JSON, so two events of the same type in
// the same second only collapse when every field matches.
func (e TimelineEvent) Fingerprint() string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return "id:" + id
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(sum[:])
}
