package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
)

// Repository provides catalog persistence on top of GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByCode loads one product by its code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "kode_barang = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save persists the full product row.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes a product by code and reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, code string) (int64, error) {
	res := r.db.WithContext(ctx).Where("kode_barang = ?", code).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// DeleteMany removes all products matching the provided codes.
func (r *Repository) DeleteMany(ctx context.Context, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("kode_barang IN ?", codes).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// List returns products ordered by name, optionally filtered by a code/name
// substring. The catalog is small enough that offset-free listing with a hard
// limit is sufficient; the ledger is where cursor pagination earns its keep.
func (r *Repository) List(ctx context.Context, search string, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if trimmed := strings.TrimSpace(search); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		query = query.Where("LOWER(kode_barang) LIKE ? OR LOWER(nama_barang) LIKE ?", pattern, pattern)
	}

	var products []models.Product
	err := query.
		Order("nama_barang ASC").
		Order("kode_barang ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
