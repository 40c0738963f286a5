package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
	"github.com/farlliant/tokopos-backend/pkg/pagination"
)

// Repository provides ledger persistence on top of GORM. Locking methods are
// meant to run inside a transaction via WithTx.
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

// SetLockTimeout bounds how long row-lock acquisition may wait inside the
// current transaction. No-op outside postgres; sqlite has no lock_timeout.
func (r *Repository) SetLockTimeout(ctx context.Context, timeout time.Duration) error {
	if r.db.Dialector.Name() != "postgres" || timeout <= 0 {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())
	return r.db.WithContext(ctx).Exec(stmt).Error
}

// LockProduct loads a product row under FOR UPDATE so concurrent sales of the
// same item serialize on the stock check.
func (r *Repository) LockProduct(ctx context.Context, code string) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := query.First(&product, "kode_barang = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SaveProduct persists the full product row.
func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// LockAccount loads an account row under FOR UPDATE for balance debits.
func (r *Repository) LockAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var account models.Account
	if err := query.First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveAccount persists the full account row.
func (r *Repository) SaveAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// CreateTransaction inserts one settled sale row.
func (r *Repository) CreateTransaction(ctx context.Context, trx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(trx).Error
}

// FindTransaction loads one ledger row with its product joined in.
func (r *Repository) FindTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	var trx models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&trx, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &trx, nil
}

// DeleteTransaction removes one ledger row, returning rows affected.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// List returns ledger rows newest first using keyset pagination on
// (waktu_transaksi, id). The caller passes limit+1 to detect the next page.
func (r *Repository) List(ctx context.Context, params ListParams, cursor *pagination.Cursor, limit int) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Preload("Product")

	if params.ProductCode != "" {
		query = query.Where("product_code = ?", params.ProductCode)
	}
	if cursor != nil {
		id, err := strconv.ParseInt(cursor.Key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor key: %w", err)
		}
		query = query.Where(
			"waktu_transaksi < ? OR (waktu_transaksi = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, id,
		)
	}

	var rows []models.Transaction
	err := query.
		Order("waktu_transaksi DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
