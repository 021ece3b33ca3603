package di

import (
	"time"

	"gorm.io/gorm"

	"stockwatch/internal/config"
	alertsadapters "stockwatch/internal/feature/alerts/adapters"
	alertsusecase "stockwatch/internal/feature/alerts/usecase"
	healthusecase "stockwatch/internal/feature/health/usecase"
	"stockwatch/internal/feature/prices/provider"
)

// The dispatcher serves both alert consumers through the same method set.
var (
	_ provider.AlertSender      = (*alertsusecase.Dispatcher)(nil)
	_ healthusecase.AlertSender = (*alertsusecase.Dispatcher)(nil)
)

// NewAlertDispatcher creates the shared alert dispatcher. Without a
// webhook URL it degrades to log-only dispatch, and without a database
// it skips the audit trail, so alerting can never take the fetch path
// down with it.
func NewAlertDispatcher(cfg config.AlertsConfig, db *gorm.DB) *alertsusecase.Dispatcher {
	var notifier alertsusecase.Notifier
	if cfg.WebhookURL != "" {
		notifier = alertsadapters.NewWebhookNotifier(alertsadapters.WebhookConfig{
			URL:     cfg.WebhookURL,
			Channel: cfg.Channel,
			Timeout: 10 * time.Second,
		}, nil)
	}
	var audit alertsusecase.AuditStore
	if db != nil {
		audit = alertsadapters.NewAlertStore(db)
	}
	return alertsusecase.NewDispatcher(notifier, audit)
}
