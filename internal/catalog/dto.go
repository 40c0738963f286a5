package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
)

// ProductDTO is the wire representation of a catalog item. Column vocabulary
// follows the original deployment, so POS clients keep working unchanged.
type ProductDTO struct {
	Code      string          `json:"kode_barang"`
	Name      string          `json:"nama_barang"`
	Unit      string          `json:"satuan"`
	UnitPrice decimal.Decimal `json:"harga_satuan"`
	CostPrice decimal.Decimal `json:"harga_modal"`
	Stock     int             `json:"stok"`
}

// CreateProductInput holds a validated create payload.
type CreateProductInput struct {
	Code      string          `json:"kode_barang" validate:"required,max=40"`
	Name      string          `json:"nama_barang" validate:"required,max=120"`
	Unit      string          `json:"satuan" validate:"required,max=40"`
	UnitPrice decimal.Decimal `json:"harga_satuan" validate:"required"`
	CostPrice decimal.Decimal `json:"harga_modal"`
	Stock     int             `json:"stok" validate:"min=0"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name      *string          `json:"nama_barang,omitempty" validate:"omitempty,max=120"`
	Unit      *string          `json:"satuan,omitempty" validate:"omitempty,max=40"`
	UnitPrice *decimal.Decimal `json:"harga_satuan,omitempty"`
	CostPrice *decimal.Decimal `json:"harga_modal,omitempty"`
	Stock     *int             `json:"stok,omitempty" validate:"omitempty,min=0"`
}

// BulkUpdateItem pairs a product code with its partial update.
type BulkUpdateItem struct {
	Code   string             `json:"kode_barang" validate:"required"`
	Update UpdateProductInput `json:"update" validate:"required"`
}

// BulkItemFailure reports why one item of a bulk request was rejected.
type BulkItemFailure struct {
	Code    string `json:"kode_barang"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// BulkUpdateResult carries per-item outcomes for a best-effort bulk update.
type BulkUpdateResult struct {
	Updated  []ProductDTO      `json:"updated"`
	Failures []BulkItemFailure `json:"failures"`
}

// BulkDeleteResult reports how many products a bulk delete removed.
type BulkDeleteResult struct {
	Deleted int64 `json:"deleted"`
}

func toProductDTO(m *models.Product) *ProductDTO {
	return &ProductDTO{
		Code:      m.Code,
		Name:      m.Name,
		Unit:      m.Unit,
		UnitPrice: m.UnitPrice,
		CostPrice: m.CostPrice,
		Stock:     m.Stock,
	}
}

func toProductDTOs(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *toProductDTO(&items[i]))
	}
	return out
}
