/**
 * @description
 * RabbitMQ ingestion handlers. Each handler returns true to ack and false to
 * requeue; malformed payloads are acked and dropped.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/wcpay/narration-service/internal/domain"
)

// Routing keys the ingestion consumer binds to.
const (
	RoutingKeyChargeUpdated  = "payments.charge.updated"
	RoutingKeyDisputeUpdated = "payments.dispute.updated"
	RoutingKeyTimelineEvent  = "payments.timeline.event"
)

const ingestTimeout = 10 * time.Second

// IngestionConsumer feeds upstream payment updates into the service.
type IngestionConsumer struct {
	service *Service
	logger  *slog.Logger
}

// NewIngestionConsumer creates the ingestion handlers.
func NewIngestionConsumer(service *Service, logger *slog.Logger) *IngestionConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionConsumer{service: service, logger: logger}
}

// Bindings returns the handler for each routing key.
func (c *IngestionConsumer) Bindings() map[string]func([]byte) bool {
	return map[string]func([]byte) bool{
		RoutingKeyChargeUpdated:  c.HandleChargeUpdated,
		RoutingKeyDisputeUpdated: c.HandleDisputeUpdated,
		RoutingKeyTimelineEvent:  c.HandleTimelineEvent,
	}
}

func (c *IngestionConsumer) HandleChargeUpdated(body []byte) bool {
	msg, err := domain.DecodeChargeUpdated(body)
	if err != nil || msg.Charge.ID == "" {
		c.logger.Error("dropping malformed charge update", "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if err := c.service.IngestCharge(ctx, msg.Charge); err != nil {
		c.logger.Error("failed to ingest charge update", "charge_id", msg.Charge.ID, "error", err)
		return false
	}
	c.logger.Debug("ingested charge update", "charge_id", msg.Charge.ID)
	return true
}

func (c *IngestionConsumer) HandleDisputeUpdated(body []byte) bool {
	msg, err := domain.DecodeDisputeUpdated(body)
	if err != nil || msg.Dispute.ID == "" {
		c.logger.Error("dropping malformed dispute update", "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if err := c.service.IngestDispute(ctx, msg.Dispute); err != nil {
		c.logger.Error("failed to ingest dispute update", "dispute_id", msg.Dispute.ID, "error", err)
		return false
	}
	c.logger.Debug("ingested dispute update", "dispute_id", msg.Dispute.ID, "status", msg.Dispute.Status)
	return true
}

func (c *IngestionConsumer) HandleTimelineEvent(body []byte) bool {
	msg, err := domain.DecodeTimelineEventMessage(body)
	if err != nil || msg.ChargeID == "" || msg.Event.Type == "" {
		c.logger.Error("dropping malformed timeline event", "error", err)
		return true
	}
	if !msg.Event.Type.Known() {
		c.logger.Warn("ingesting timeline event with unknown type", "charge_id", msg.ChargeID, "type", msg.Event.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if err := c.service.IngestTimelineEvent(ctx, msg.ChargeID, msg.Event); err != nil {
		c.logger.Error("failed to ingest timeline event", "charge_id", msg.ChargeID, "error", err)
		return false
	}
	return true
}
