package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one settled sale. Rows are immutable after commit; the only
// write path besides insert is the administrative reversal, which deletes the
// row after restoring stock under the same lock discipline.
type Transaction struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductCode   string          `gorm:"column:product_code;not null"`
	Product       *Product        `gorm:"foreignKey:ProductCode;references:Code;constraint:OnDelete:RESTRICT"`
	AccountID     *uuid.UUID      `gorm:"column:account_id;type:uuid"`
	Account       *Account        `gorm:"foreignKey:AccountID;references:ID"`
	CustomerLabel *string         `gorm:"column:customer_label"`
	Quantity      int             `gorm:"column:jumlah;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:harga_satuan;type:numeric(12,2);not null"`
	CostPrice     decimal.Decimal `gorm:"column:harga_modal;type:numeric(12,2);not null"`
	Total         decimal.Decimal `gorm:"column:total_harga;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:waktu_transaksi;autoCreateTime"`
}

// TableName overrides the GORM default.
func (Transaction) TableName() string {
	return "transactions"
}
