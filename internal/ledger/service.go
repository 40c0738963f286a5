package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farlliant/tokopos-backend/pkg/config"
	"github.com/farlliant/tokopos-backend/pkg/db"
	"github.com/farlliant/tokopos-backend/pkg/db/models"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
	"github.com/farlliant/tokopos-backend/pkg/logger"
	"github.com/farlliant/tokopos-backend/pkg/metrics"
	"github.com/farlliant/tokopos-backend/pkg/pagination"
)

const (
	modeSingle = "single"
	modeBulk   = "bulk"

	reasonInsufficientStock   = "insufficient_stock"
	reasonInsufficientBalance = "insufficient_balance"
	reasonBusy                = "busy"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the sales ledger operations.
type Service interface {
	RecordSale(ctx context.Context, input SaleInput) (*TransactionDTO, error)
	RecordSales(ctx context.Context, inputs []SaleInput) ([]TransactionDTO, error)
	Get(ctx context.Context, id int64) (*TransactionDTO, error)
	List(ctx context.Context, params ListParams) (*Page, error)
	Reverse(ctx context.Context, id int64) error
}

type service struct {
	repo      *Repository
	tx        txRunner
	dbCfg     config.DBConfig
	ledgerCfg config.LedgerConfig
	metrics   *metrics.LedgerMetrics
	logg      *logger.Logger
}

// NewService constructs a ledger service instance.
func NewService(
	repo *Repository,
	tx txRunner,
	dbCfg config.DBConfig,
	ledgerCfg config.LedgerConfig,
	m *metrics.LedgerMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		dbCfg:     dbCfg,
		ledgerCfg: ledgerCfg,
		metrics:   m,
		logg:      logg,
	}, nil
}

// RecordSale settles one sale line atomically.
func (s *service) RecordSale(ctx context.Context, input SaleInput) (*TransactionDTO, error) {
	recorded, err := s.record(ctx, []SaleInput{input}, modeSingle)
	if err != nil {
		return nil, err
	}
	return &recorded[0], nil
}

// RecordSales settles a batch all-or-nothing: either every line commits or the
// ledger and stock are untouched.
func (s *service) RecordSales(ctx context.Context, inputs []SaleInput) ([]TransactionDTO, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty sale batch")
	}
	return s.record(ctx, inputs, modeBulk)
}

func (s *service) record(ctx context.Context, inputs []SaleInput, mode string) ([]TransactionDTO, error) {
	for _, input := range inputs {
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if input.AccountID == nil && !hasLabel(input.CustomerLabel) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer account or label required")
		}
	}

	var committed []models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetLockTimeout(ctx, s.dbCfg.LockTimeout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set lock timeout")
		}

		// Products are locked in ascending code order so concurrent batches
		// touching the same items cannot deadlock.
		products, err := s.lockProducts(ctx, repo, inputs)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		rows := make([]models.Transaction, 0, len(inputs))
		debits := make(map[string]decimal.Decimal)

		for _, input := range inputs {
			product := products[input.ProductCode]
			if product.Stock < input.Quantity {
				s.rejected(reasonInsufficientStock)
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
					WithDetails(StockShortage{
						ProductCode: product.Code,
						Available:   product.Stock,
						Requested:   input.Quantity,
					})
			}
			product.Stock -= input.Quantity

			// Both prices are snapshots: later catalog edits must not rewrite
			// settled revenue or profit.
			total := product.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
			rows = append(rows, models.Transaction{
				ProductCode:   product.Code,
				AccountID:     input.AccountID,
				CustomerLabel: input.CustomerLabel,
				Quantity:      input.Quantity,
				UnitPrice:     product.UnitPrice,
				CostPrice:     product.CostPrice,
				Total:         total,
				CreatedAt:     now,
			})

			if s.ledgerCfg.EnforceBalance && input.AccountID != nil {
				key := input.AccountID.String()
				debits[key] = debits[key].Add(total)
			}
		}

		if err := s.debitBalances(ctx, repo, inputs, debits); err != nil {
			return err
		}

		for code := range products {
			if err := repo.SaveProduct(ctx, products[code]); err != nil {
				return s.classifyWriteError(err, "save product stock")
			}
		}
		for i := range rows {
			if err := repo.CreateTransaction(ctx, &rows[i]); err != nil {
				return s.classifyWriteError(err, "insert transaction")
			}
		}

		committed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		for range committed {
			s.metrics.IncRecorded(mode)
		}
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"mode": mode, "lines": len(committed)})
		s.logg.Info(logCtx, "ledger.sale.recorded")
	}
	return toTransactionDTOs(committed), nil
}

// lockProducts acquires row locks over the distinct product codes in
// ascending order and returns them keyed by code.
func (s *service) lockProducts(ctx context.Context, repo *Repository, inputs []SaleInput) (map[string]*models.Product, error) {
	codes := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		if !seen[input.ProductCode] {
			seen[input.ProductCode] = true
			codes = append(codes, input.ProductCode)
		}
	}
	sort.Strings(codes)

	products := make(map[string]*models.Product, len(codes))
	for _, code := range codes {
		product, err := repo.LockProduct(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", code))
			}
			if db.IsLockTimeout(err) {
				s.rejected(reasonBusy)
				return nil, pkgerrors.Wrap(pkgerrors.CodeBusy, err, "product row busy")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock product")
		}
		products[code] = product
	}
	return products, nil
}

// debitBalances applies accumulated debits when balance enforcement is on.
// Accounts are locked in ascending id order, mirroring the product discipline.
func (s *service) debitBalances(ctx context.Context, repo *Repository, inputs []SaleInput, debits map[string]decimal.Decimal) error {
	if len(debits) == 0 {
		return nil
	}

	ids := make([]string, 0, len(debits))
	for id := range debits {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	byID := make(map[string]SaleInput, len(inputs))
	for _, input := range inputs {
		if input.AccountID != nil {
			byID[input.AccountID.String()] = input
		}
	}

	for _, id := range ids {
		accountID := *byID[id].AccountID
		account, err := repo.LockAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			if db.IsLockTimeout(err) {
				s.rejected(reasonBusy)
				return pkgerrors.Wrap(pkgerrors.CodeBusy, err, "account row busy")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock account")
		}

		required := debits[id]
		if account.Balance.LessThan(required) {
			s.rejected(reasonInsufficientBalance)
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance").
				WithDetails(BalanceShortage{
					AccountID: account.ID,
					Balance:   account.Balance,
					Required:  required,
				})
		}
		account.Balance = account.Balance.Sub(required)
		if err := repo.SaveAccount(ctx, account); err != nil {
			return s.classifyWriteError(err, "debit account balance")
		}
	}
	return nil
}

// Get returns one settled sale.
func (s *service) Get(ctx context.Context, id int64) (*TransactionDTO, error) {
	trx, err := s.repo.FindTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
	}
	return toTransactionDTO(trx), nil
}

// List returns one page of the ledger, newest first.
func (s *service) List(ctx context.Context, params ListParams) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, params, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}

	page := &Page{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			Key:       strconv.FormatInt(last.ID, 10),
		})
	}
	page.Items = toTransactionDTOs(rows)
	return page, nil
}

// Reverse undoes one settled sale: stock is restored, any balance debit is
// refunded, and the row is removed, all under the same lock discipline as the
// original sale. Restricted to admins at the routing layer.
func (s *service) Reverse(ctx context.Context, id int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetLockTimeout(ctx, s.dbCfg.LockTimeout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set lock timeout")
		}

		trx, err := repo.FindTransaction(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
		}

		product, err := repo.LockProduct(ctx, trx.ProductCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			if db.IsLockTimeout(err) {
				s.rejected(reasonBusy)
				return pkgerrors.Wrap(pkgerrors.CodeBusy, err, "product row busy")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock product")
		}
		product.Stock += trx.Quantity
		if err := repo.SaveProduct(ctx, product); err != nil {
			return s.classifyWriteError(err, "restore product stock")
		}

		if s.ledgerCfg.EnforceBalance && trx.AccountID != nil {
			account, err := repo.LockAccount(ctx, *trx.AccountID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock account")
			}
			account.Balance = account.Balance.Add(trx.Total)
			if err := repo.SaveAccount(ctx, account); err != nil {
				return s.classifyWriteError(err, "refund account balance")
			}
		}

		affected, err := repo.DeleteTransaction(ctx, id)
		if err != nil {
			return s.classifyWriteError(err, "delete transaction")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithField(ctx, "transaction_id", id)
		s.logg.Info(logCtx, "ledger.sale.reversed")
	}
	return nil
}

func (s *service) classifyWriteError(err error, message string) error {
	switch {
	case db.IsLockTimeout(err):
		s.rejected(reasonBusy)
		return pkgerrors.Wrap(pkgerrors.CodeBusy, err, message)
	case db.IsCheckViolation(err):
		s.rejected(reasonInsufficientStock)
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
}

func hasLabel(label *string) bool {
	return label != nil && strings.TrimSpace(*label) != ""
}

func (s *service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.IncRejected(reason)
	}
}
