package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farlliant/tokopos-backend/pkg/config"
	"github.com/farlliant/tokopos-backend/pkg/db"
	"github.com/farlliant/tokopos-backend/pkg/db/models"
	"github.com/farlliant/tokopos-backend/pkg/enums"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
	"github.com/farlliant/tokopos-backend/pkg/logger"
	"github.com/farlliant/tokopos-backend/pkg/pagination"
	"github.com/farlliant/tokopos-backend/pkg/security"
)

// Service exposes account management operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AccountDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AccountDTO, error)
	List(ctx context.Context, search string, limit int) ([]AccountDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*AccountDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService constructs an account service instance.
func NewService(repo *Repository, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg, logg: logg}, nil
}

// Register creates an account with a hashed credential. Duplicate username or
// email is reported as a conflict.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AccountDTO, error) {
	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	role := enums.RoleStaff
	if input.Role != nil {
		parsed, err := enums.ParseRole(*input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		role = parsed
	}

	account := &models.Account{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         role,
		Balance:      decimal.Zero,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "username or email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
	}

	if s.logg != nil {
		logCtx := s.logg.WithAccountID(ctx, account.ID.String())
		s.logg.Info(logCtx, "account.registered")
	}
	return toAccountDTO(account), nil
}

// Get returns one account by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.findAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAccountDTO(account), nil
}

// List returns accounts, optionally filtered by a search term.
func (s *service) List(ctx context.Context, search string, limit int) ([]AccountDTO, error) {
	accounts, err := s.repo.List(ctx, search, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list accounts")
	}
	return toAccountDTOs(accounts), nil
}

// Update applies a partial mutation. Credential changes re-hash before persist.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*AccountDTO, error) {
	account, err := s.findAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		account.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		account.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.FullName != nil {
		account.FullName = input.FullName
	}
	if input.Role != nil {
		role, err := enums.ParseRole(*input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		account.Role = role
	}
	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		account.PasswordHash = hash
	}

	if err := s.repo.Save(ctx, account); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "username or email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save account")
	}
	return toAccountDTO(account), nil
}

// Deactivate disables the account. Accounts are never deleted, so settled
// transactions keep their reference.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	account, err := s.findAccount(ctx, id)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return nil
	}
	account.IsActive = false
	if err := s.repo.Save(ctx, account); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate account")
	}
	if s.logg != nil {
		logCtx := s.logg.WithAccountID(ctx, account.ID.String())
		s.logg.Info(logCtx, "account.deactivated")
	}
	return nil
}

func (s *service) findAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	return account, nil
}
