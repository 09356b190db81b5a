/**
 * @description
 * Scheduled job implementations for the narration service.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/wcpay/narration-service/internal/config"
)

const reminderJobTimeout = 2 * time.Minute

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	service   *Service
	publisher EventPublisher
	logger    *slog.Logger
	config    config.Config
}

// NewJobs creates a new Jobs runner.
func NewJobs(service *Service, publisher EventPublisher, logger *slog.Logger, cfg config.Config) *Jobs {
	return &Jobs{
		service:   service,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
	}
}

// DispatchDisputeReminders publishes reminders for disputes nearing their
// evidence deadline.
func (j *Jobs) DispatchDisputeReminders() {
	j.logger.Info("starting dispute reminder job")
	ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
	defer cancel()

	result, err := j.service.SendDueReminders(ctx, j.publisher, j.config.EventsExchange, j.config.ReminderWindow)
	if err != nil {
		j.logger.Error("dispute reminder job failed", "error", err)
		return
	}

	j.logger.Info("dispute reminder job finished",
		"evaluated", result.Evaluated,
		"published", result.Published,
		"failed", result.Failed,
	)
}
