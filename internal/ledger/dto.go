package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
)

// SaleInput is one requested sale line. The unit price is never accepted from
// the caller; it is snapshotted from the catalog row under lock.
type SaleInput struct {
	ProductCode   string     `json:"kode_barang" validate:"required,max=40"`
	Quantity      int        `json:"jumlah" validate:"required,gt=0"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	CustomerLabel *string    `json:"customer_label,omitempty" validate:"omitempty,max=120"`
}

// TransactionDTO is the wire representation of one settled sale.
type TransactionDTO struct {
	ID            int64           `json:"id"`
	ProductCode   string          `json:"kode_barang"`
	ProductName   string          `json:"nama_barang,omitempty"`
	AccountID     *uuid.UUID      `json:"account_id,omitempty"`
	CustomerLabel *string         `json:"customer_label,omitempty"`
	Quantity      int             `json:"jumlah"`
	UnitPrice     decimal.Decimal `json:"harga_satuan"`
	Total         decimal.Decimal `json:"total_harga"`
	RecordedAt    time.Time       `json:"waktu_transaksi"`
}

// Page is one cursor-paginated slice of the ledger, newest first.
type Page struct {
	Items      []TransactionDTO `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ListParams narrows and paginates ledger listings.
type ListParams struct {
	Limit       int
	Cursor      string
	ProductCode string
}

// StockShortage details an insufficient-stock rejection so the point of sale
// can show the shopper what is actually available.
type StockShortage struct {
	ProductCode string `json:"kode_barang"`
	Available   int    `json:"stok"`
	Requested   int    `json:"jumlah"`
}

// BalanceShortage details an insufficient-balance rejection.
type BalanceShortage struct {
	AccountID uuid.UUID       `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Required  decimal.Decimal `json:"required"`
}

func toTransactionDTO(m *models.Transaction) *TransactionDTO {
	dto := &TransactionDTO{
		ID:            m.ID,
		ProductCode:   m.ProductCode,
		AccountID:     m.AccountID,
		CustomerLabel: m.CustomerLabel,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		Total:         m.Total,
		RecordedAt:    m.CreatedAt,
	}
	if m.Product != nil {
		dto.ProductName = m.Product.Name
	}
	return dto
}

func toTransactionDTOs(items []models.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(items))
	for i := range items {
		out = append(out, *toTransactionDTO(&items[i]))
	}
	return out
}
