package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChargeUpdatedMessage is published on payments.charge.updated.
type ChargeUpdatedMessage struct {
	Charge Charge `json:"charge"`
}

// DisputeUpdatedMessage is published on payments.dispute.updated.
type DisputeUpdatedMessage struct {
	Dispute Dispute `json:"dispute"`
}

// TimelineEventMessage is published on payments.timeline.event.
type TimelineEventMessage struct {
	ChargeID string        `json:"charge_id"`
	Event    TimelineEvent `json:"event"`
}

// DecodeCharge parses a charge payload and normalises its optional fields.
func DecodeCharge(data []byte) (Charge, error) {
	var charge Charge
	if err := json.Unmarshal(data, &charge); err != nil {
		return Charge{}, fmt.Errorf("decode charge: %w", err)
	}
	charge.normalize()
	return charge, nil
}

// DecodeDispute parses a dispute payload and normalises its optional fields.
func DecodeDispute(data []byte) (Dispute, error) {
	var dispute Dispute
	if err := json.Unmarshal(data, &dispute); err != nil {
		return Dispute{}, fmt.Errorf("decode dispute: %w", err)
	}
	dispute.normalize()
	return dispute, nil
}

// DecodeTimelineEvents parses a JSON array of timeline events.
func DecodeTimelineEvents(data []byte) ([]TimelineEvent, error) {
	var events []TimelineEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode timeline events: %w", err)
	}
	for i := range events {
		events[i].normalize()
	}
	return events, nil
}

// DecodeTimelineEvent parses a single timeline event.
func DecodeTimelineEvent(data []byte) (TimelineEvent, error) {
	var event TimelineEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return TimelineEvent{}, fmt.Errorf("decode timeline event: %w", err)
	}
	event.normalize()
	return event, nil
}

// DecodeFeeRates parses a fee_rates payload.
func DecodeFeeRates(data []byte) (FeeRates, error) {
	var rates FeeRates
	if err := json.Unmarshal(data, &rates); err != nil {
		return FeeRates{}, fmt.Errorf("decode fee rates: %w", err)
	}
	rates.normalize()
	return rates, nil
}

// DecodeChargeUpdated parses a payments.charge.updated message body.
func DecodeChargeUpdated(data []byte) (ChargeUpdatedMessage, error) {
	var msg ChargeUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChargeUpdatedMessage{}, fmt.Errorf("decode charge message: %w", err)
	}
	msg.Charge.normalize()
	return msg, nil
}

// DecodeDisputeUpdated parses a payments.dispute.updated message body.
func DecodeDisputeUpdated(data []byte) (DisputeUpdatedMessage, error) {
	var msg DisputeUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return DisputeUpdatedMessage{}, fmt.Errorf("decode dispute message: %w", err)
	}
	msg.Dispute.normalize()
	return msg, nil
}

// DecodeTimelineEventMessage parses a payments.timeline.event message body.
func DecodeTimelineEventMessage(data []byte) (TimelineEventMessage, error) {
	var msg TimelineEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return TimelineEventMessage{}, fmt.Errorf("decode timeline message: %w", err)
	}
	msg.ChargeID = strings.TrimSpace(msg.ChargeID)
	msg.Event.normalize()
	return msg, nil
}

func (c *Charge) normalize() {
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if c.PaymentMethodDetails != nil {
		c.PaymentMethodDetails.Type = NormalizePaymentMethodType(string(c.PaymentMethodDetails.Type))
	}
	if c.Dispute != nil {
		c.Dispute.normalize()
		if c.Dispute.ChargeID == "" {
			c.Dispute.ChargeID = c.ID
		}
	}
}

func (d *Dispute) normalize() {
	if d.EnhancedEligibilityTypes == nil {
		d.EnhancedEligibilityTypes = []string{}
	}
	if d.Metadata == nil {
		d.Metadata = DisputeMetadata{}
	}
	d.Currency = strings.ToLower(strings.TrimSpace(d.Currency))
}

func (e *TimelineEvent) normalize() {
	e.Type = EventType(strings.ToLower(strings.TrimSpace(string(e.Type))))
	if e.FeeRates != nil {
		e.FeeRates.normalize()
	}
}

func (r *FeeRates) normalize() {
	if r.FixedCurrency == "" && len(r.History) > 0 {
		r.FixedCurrency = r.History[0].Currency
	}
}
