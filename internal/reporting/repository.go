package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
)

// Totals is one SQL aggregate over a half-open time range.
type Totals struct {
	Count    int64           `gorm:"column:trx_count"`
	Revenue  decimal.Decimal `gorm:"column:revenue"`
	Quantity int64           `gorm:"column:quantity"`
	Profit   decimal.Decimal `gorm:"column:profit"`
}

// Repository provides read-only aggregation over the ledger. Nothing in here
// takes a row lock; reports must never contend with the sale path.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TotalsBetween aggregates count, revenue, quantity and profit over
// [from, to). Profit uses the cost price snapshotted on each row, so later
// catalog edits never rewrite settled history.
func (r *Repository) TotalsBetween(ctx context.Context, from, to time.Time) (*Totals, error) {
	var totals Totals
	err := r.db.WithContext(ctx).Raw(`
SELECT
  COUNT(*) AS trx_count,
  COALESCE(SUM(t.total_harga), 0) AS revenue,
  COALESCE(SUM(t.jumlah), 0) AS quantity,
  COALESCE(SUM((t.harga_satuan - t.harga_modal) * t.jumlah), 0) AS profit
FROM transactions t
WHERE t.waktu_transaksi >= ? AND t.waktu_transaksi < ?`,
		from, to,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// TransactionsBetween returns ledger rows over [from, to) oldest first, with
// the product joined in for display names.
func (r *Repository) TransactionsBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("waktu_transaksi >= ? AND waktu_transaksi < ?", from, to).
		Order("waktu_transaksi ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
