package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"stockwatch/internal/feature/alerts/domain/entity"
	"stockwatch/internal/feature/alerts/usecase"
)

type alertGorm struct {
	db *gorm.DB
}

var _ usecase.AuditStore = (*alertGorm)(nil)

// NewAlertStore creates an AuditStore backed by gorm.
func NewAlertStore(db *gorm.DB) usecase.AuditStore {
	return &alertGorm{db: db}
}

// AlertModel is the gorm model for dispatched alert episodes.
type AlertModel struct {
	Episode   string    `gorm:"primaryKey;size:26"`
	Title     string    `gorm:"size:255;not null"`
	Body      string    `gorm:"type:text"`
	Channel   string    `gorm:"size:32"`
	Delivered bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName overrides the default table name used by gorm.
func (AlertModel) TableName() string { return "alerts" }

func (r *alertGorm) Record(ctx context.Context, alert entity.Alert) error {
	m := AlertModel{
		Episode:   alert.Episode,
		Title:     alert.Title,
		Body:      alert.Body,
		Channel:   alert.Channel,
		Delivered: alert.Delivered,
		CreatedAt: alert.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	return nil
}
