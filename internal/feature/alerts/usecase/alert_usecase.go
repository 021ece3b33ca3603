// Package usecase implements alert dispatch. The fetch and health
// subsystems hand over a title and body once per failure episode; this
// package assigns an episode ID, delivers through the configured
// channel, and keeps a best-effort audit trail.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockwatch/internal/feature/alerts/domain/entity"
	"stockwatch/internal/shared/id"
)

// Notifier delivers one rendered alert to a destination channel.
type Notifier interface {
	// Notify posts the alert. An error means the channel rejected it.
	Notify(ctx context.Context, episode, title, body string) error
	// Channel names the destination for logging and auditing.
	Channel() string
}

// AuditStore records dispatched alerts for later inspection.
type AuditStore interface {
	Record(ctx context.Context, alert entity.Alert) error
}

// Dispatcher sends infrastructure alerts. With no Notifier configured
// it degrades to log-only dispatch, so a missing or broken alert
// channel can never break the fetch paths that report through it.
type Dispatcher struct {
	notifier Notifier   // nil disables channel delivery
	audit    AuditStore // nil disables the audit trail
	now      func() time.Time
	newID    func() string
}

// NewDispatcher creates a Dispatcher. Both notifier and audit may be
// nil.
func NewDispatcher(notifier Notifier, audit AuditStore) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
		newID:    id.New,
	}
}

// SendInfraAlert dispatches one alert episode. It reports whether the
// channel accepted the alert; audit failures alone never fail the
// dispatch.
func (d *Dispatcher) SendInfraAlert(ctx context.Context, title, body string) (bool, error) {
	alert := entity.Alert{
		Episode:   d.newID(),
		Title:     title,
		Body:      body,
		CreatedAt: d.now(),
	}

	if d.notifier == nil {
		alert.Channel = "log"
		alert.Delivered = true
		slog.Warn("infra alert (no channel configured)",
			"episode", alert.Episode, "title", title, "body", body)
		d.record(ctx, alert)
		return true, nil
	}

	alert.Channel = d.notifier.Channel()
	err := d.notifier.Notify(ctx, alert.Episode, title, body)
	alert.Delivered = err == nil
	d.record(ctx, alert)

	if err != nil {
		slog.Error("alert delivery failed",
			"episode", alert.Episode, "channel", alert.Channel, "error", err)
		return false, fmt.Errorf("notify %s: %w", alert.Channel, err)
	}
	slog.Info("alert delivered", "episode", alert.Episode, "channel", alert.Channel, "title", title)
	return true, nil
}

func (d *Dispatcher) record(ctx context.Context, alert entity.Alert) {
	if d.audit == nil {
		return
	}
	if err := d.audit.Record(ctx, alert); err != nil {
		slog.Warn("failed to record alert", "episode", alert.Episode, "error", err)
	}
}
