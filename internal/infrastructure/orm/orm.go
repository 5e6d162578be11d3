package orm

import (
	"context"
	"time"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/domain"
	"fxrates-adapter/internal/infrastructure/logx"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Currency is the default table layout, used by AutoMigrate.
type Currency struct {
	Code         string    `gorm:"primaryKey;size:3"`
	ExchangeRate float64   `gorm:"type:numeric(20,10);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Currency) TableName() string { return "currencies" }

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Currency{})
}

// RateModel reads currency rows through gorm from a configurable table.
type RateModel struct {
	db    *gorm.DB
	table string
	cols  domain.Columns
}

var _ application.RateModel = (*RateModel)(nil)

func NewRateModel(db *gorm.DB, table string, cols domain.Columns) *RateModel {
	return &RateModel{db: db, table: table, cols: cols}
}

func (m *RateModel) query(ctx context.Context, q application.Query) *gorm.DB {
	tx := m.db.WithContext(ctx).Table(m.table)
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	if f := q.Filter; f != nil {
		col := clause.Column{Name: f.Column}
		if len(f.Values) == 1 {
			tx = tx.Where(clause.Eq{Column: col, Value: f.Values[0]})
		} else {
			vals := make([]any, len(f.Values))
			for i, v := range f.Values {
				vals[i] = v
			}
			tx = tx.Where(clause.IN{Column: col, Values: vals})
		}
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

func (m *RateModel) All(ctx context.Context, q application.Query) ([]domain.Row, error) {
	if q.Filter != nil && len(q.Filter.Values) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	if err := m.query(ctx, q).Find(&rows).Error; err != nil {
		logx.WithFields(ctx).Error("orm.query_failed",
			zap.String("repo", "rate_model"),
			zap.String("table", m.table),
			zap.Error(err),
		)
		return nil, err
	}
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = domain.Row(r)
	}
	return out, nil
}

func (m *RateModel) First(ctx context.Context, q application.Query) (domain.Row, bool, error) {
	rows, err := m.All(ctx, q.WithLimit(1))
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// Upsert writes one rate keyed by code.
func (m *RateModel) Upsert(ctx context.Context, code string, rate float64, at time.Time) error {
	values := map[string]any{
		m.cols.Code: domain.NormalizeCode(code),
		m.cols.Rate: rate,
	}
	updates := []string{m.cols.Rate}
	if m.cols.CreatedAt != "" {
		values[m.cols.CreatedAt] = at
	}
	if m.cols.UpdatedAt != "" {
		values[m.cols.UpdatedAt] = at
		updates = append(updates, m.cols.UpdatedAt)
	}
	err := m.db.WithContext(ctx).Table(m.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: m.cols.Code}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(values).Error
	if err != nil {
		logx.WithFields(ctx).Error("orm.upsert_failed", zap.String("code", code), zap.Error(err))
	}
	return err
}
