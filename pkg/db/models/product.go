package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item keyed by its product code. Stock is mutated only
// through catalog edits and the ledger's locked decrement path.
type Product struct {
	Code      string          `gorm:"column:kode_barang;primaryKey"`
	Name      string          `gorm:"column:nama_barang;not null"`
	Unit      string          `gorm:"column:satuan;not null"`
	UnitPrice decimal.Decimal `gorm:"column:harga_satuan;type:numeric(12,2);not null"`
	CostPrice decimal.Decimal `gorm:"column:harga_modal;type:numeric(12,2);not null"`
	Stock     int             `gorm:"column:stok;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the GORM default.
func (Product) TableName() string {
	return "products"
}
