package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/farlliant/tokopos-backend/pkg/db"
	"github.com/farlliant/tokopos-backend/pkg/db/models"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
	"github.com/farlliant/tokopos-backend/pkg/logger"
	"github.com/farlliant/tokopos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management operations.
type Service interface {
	Get(ctx context.Context, code string) (*ProductDTO, error)
	List(ctx context.Context, search string, limit int) ([]ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, code string, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, code string) error
	BulkCreate(ctx context.Context, inputs []CreateProductInput) ([]ProductDTO, error)
	BulkUpdate(ctx context.Context, items []BulkUpdateItem) (*BulkUpdateResult, error)
	BulkDelete(ctx context.Context, codes []string) (*BulkDeleteResult, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Get returns one product by code.
func (s *service) Get(ctx context.Context, code string) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, code)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// List returns products ordered by name, optionally filtered by substring.
func (s *service) List(ctx context.Context, search string, limit int) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, search, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return toProductDTOs(products), nil
}

// Create inserts a new product. Duplicate codes are reported as a conflict.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	model, err := buildProduct(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, model); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("product %s already exists", input.Code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return toProductDTO(model), nil
}

// Update applies a partial mutation to an existing product.
func (s *service) Update(ctx context.Context, code string, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", code))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		if err := applyUpdate(product, input); err != nil {
			return err
		}
		if err := repo.Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductDTO(updated), nil
}

// Delete removes a product. Products referenced by settled transactions are
// delete-restricted and reported as a conflict.
func (s *service) Delete(ctx context.Context, code string) error {
	affected, err := s.repo.Delete(ctx, code)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("product %s has recorded transactions", code))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", code))
	}
	return nil
}

// BulkCreate inserts all products in one transaction. Any failure rolls the
// whole batch back.
func (s *service) BulkCreate(ctx context.Context, inputs []CreateProductInput) ([]ProductDTO, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty product batch")
	}

	seen := map[string]struct{}{}
	built := make([]*models.Product, 0, len(inputs))
	for _, input := range inputs {
		if _, dup := seen[input.Code]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate kode_barang %s in batch", input.Code))
		}
		seen[input.Code] = struct{}{}

		model, err := buildProduct(input)
		if err != nil {
			return nil, err
		}
		built = append(built, model)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, model := range built {
			if err := repo.Create(ctx, model); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("product %s already exists", model.Code))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]ProductDTO, 0, len(built))
	for _, model := range built {
		out = append(out, *toProductDTO(model))
	}
	return out, nil
}

// BulkUpdate applies each item independently. Failed items never block the
// rest; outcomes are reported per item.
func (s *service) BulkUpdate(ctx context.Context, items []BulkUpdateItem) (*BulkUpdateResult, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty update batch")
	}

	result := &BulkUpdateResult{}
	var combined error
	for _, item := range items {
		dto, err := s.Update(ctx, item.Code, item.Update)
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("item %s: %w", item.Code, err))
			result.Failures = append(result.Failures, toItemFailure(item.Code, err))
			continue
		}
		result.Updated = append(result.Updated, *dto)
	}

	if combined != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"failed_items": len(result.Failures),
			"total_items":  len(items),
		})
		s.logg.Warn(logCtx, "catalog.bulk_update.partial_failure")
	}
	return result, nil
}

// BulkDelete removes all matching products and reports the count. Codes with
// no matching row are skipped silently.
func (s *service) BulkDelete(ctx context.Context, codes []string) (*BulkDeleteResult, error) {
	if len(codes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty delete batch")
	}
	deleted, err := s.repo.DeleteMany(ctx, codes)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "one or more products have recorded transactions")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bulk delete products")
	}
	return &BulkDeleteResult{Deleted: deleted}, nil
}

func (s *service) findProduct(ctx context.Context, code string) (*models.Product, error) {
	product, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func buildProduct(input CreateProductInput) (*models.Product, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kode_barang is required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "harga_satuan cannot be negative")
	}
	if input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "harga_modal cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stok cannot be negative")
	}

	return &models.Product{
		Code:      code,
		Name:      strings.TrimSpace(input.Name),
		Unit:      strings.TrimSpace(input.Unit),
		UnitPrice: input.UnitPrice,
		CostPrice: input.CostPrice,
		Stock:     input.Stock,
	}, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Unit != nil {
		product.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "harga_satuan cannot be negative")
		}
		product.UnitPrice = *input.UnitPrice
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "harga_modal cannot be negative")
		}
		product.CostPrice = *input.CostPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stok cannot be negative")
		}
		product.Stock = *input.Stock
	}
	return nil
}

func toItemFailure(code string, err error) BulkItemFailure {
	failure := BulkItemFailure{Code: code, Error: string(pkgerrors.CodeInternal)}
	if typed := pkgerrors.As(err); typed != nil {
		failure.Error = string(typed.Code())
		failure.Message = typed.Message()
	} else if err != nil {
		failure.Message = err.Error()
	}
	return failure
}
