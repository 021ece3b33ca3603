// Package adapters provides the gorm-backed repository for the prices feature.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/guregu/null/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockwatch/internal/feature/prices/domain/entity"
	"stockwatch/internal/feature/prices/usecase"
)

type priceGorm struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceGorm)(nil)

// NewPriceRepository creates the gorm implementation of the price store.
func NewPriceRepository(db *gorm.DB) *priceGorm {
	return &priceGorm{db: db}
}

// PriceModel is the persisted shape of one daily price observation.
// The (symbol, date) unique index is what turns Create into an upsert.
type PriceModel struct {
	ID     uint      `gorm:"primaryKey"`
	Symbol string    `gorm:"size:32;not null;uniqueIndex:price_sym_date,priority:1"`
	Date   time.Time `gorm:"not null;uniqueIndex:price_sym_date,priority:2"`

	Open       null.Float `gorm:"type:decimal(18,6)"`
	High       null.Float `gorm:"type:decimal(18,6)"`
	Low        null.Float `gorm:"type:decimal(18,6)"`
	Close      float64    `gorm:"type:decimal(18,6);not null"`
	AdjClose   null.Float `gorm:"type:decimal(18,6)"`
	Volume     null.Int
	Source     string    `gorm:"size:32;not null"`
	ObservedAt time.Time `gorm:"not null"`
}

func (PriceModel) TableName() string {
	return "prices"
}

func toModel(p entity.StoredPrice) PriceModel {
	return PriceModel{
		ID:         p.ID,
		Symbol:     p.Symbol,
		Date:       p.Date,
		Open:       p.Open,
		High:       p.High,
		Low:        p.Low,
		Close:      p.Close,
		AdjClose:   p.AdjClose,
		Volume:     p.Volume,
		Source:     p.Source,
		ObservedAt: p.ObservedAt,
	}
}

func toEntity(m PriceModel) entity.StoredPrice {
	return entity.StoredPrice{
		ID: m.ID,
		PriceRecord: entity.PriceRecord{
			Symbol:   m.Symbol,
			Date:     m.Date,
			Open:     m.Open,
			High:     m.High,
			Low:      m.Low,
			Close:    m.Close,
			AdjClose: m.AdjClose,
			Volume:   m.Volume,
			Source:   m.Source,
		},
		ObservedAt: m.ObservedAt,
	}
}

// UpsertBatch writes all rows as one statement, inserting or updating
// by (symbol, date), so a fetch cycle commits or rolls back whole.
// Primary keys assigned by the insert are written back into prices.
func (r *priceGorm) UpsertBatch(ctx context.Context, prices []entity.StoredPrice) error {
	if len(prices) == 0 {
		return nil
	}
	ms := make([]PriceModel, 0, len(prices))
	for _, p := range prices {
		ms = append(ms, toModel(p))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "adj_close", "volume", "source", "observed_at"}),
	}).Create(&ms).Error
	if err != nil {
		return err
	}
	for i := range ms {
		prices[i].ID = ms[i].ID
	}
	return nil
}

// FindRange returns rows for symbol in [from, to], ascending by date.
func (r *priceGorm) FindRange(ctx context.Context, symbol string, from, to time.Time) ([]entity.StoredPrice, error) {
	var rows []PriceModel
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND date >= ? AND date <= ?", symbol, from, to).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.StoredPrice, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// LatestDate returns the newest stored date for symbol, nil when the
// symbol has no rows at all.
func (r *priceGorm) LatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	var m PriceModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d := m.Date
	return &d, nil
}

// DistinctSymbols lists every symbol with at least one stored row.
func (r *priceGorm) DistinctSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := r.db.WithContext(ctx).
		Model(&PriceModel{}).
		Distinct("symbol").
		Order("symbol ASC").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}
