package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farlliant/tokopos-backend/pkg/db/models"
	"github.com/farlliant/tokopos-backend/pkg/enums"
)

// AccountDTO is the wire representation of an account. The password hash never
// leaves the service layer.
type AccountDTO struct {
	ID         uuid.UUID       `json:"id"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	FullName   *string         `json:"full_name,omitempty"`
	Role       enums.Role      `json:"role"`
	Balance    decimal.Decimal `json:"balance"`
	IsActive   bool            `json:"is_active"`
	LastLogin  *time.Time      `json:"last_login,omitempty"`
	DateJoined time.Time       `json:"date_joined"`
}

// RegisterInput holds a validated registration payload.
type RegisterInput struct {
	Username string  `json:"username" validate:"required,min=3,max=60"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin staff"`
}

// UpdateAccountInput holds optional mutation values for an account.
type UpdateAccountInput struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=60"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=120"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin staff"`
}

// ToDTO converts a stored account into its wire representation.
func ToDTO(m *models.Account) *AccountDTO {
	return toAccountDTO(m)
}

func toAccountDTO(m *models.Account) *AccountDTO {
	return &AccountDTO{
		ID:         m.ID,
		Username:   m.Username,
		Email:      m.Email,
		FullName:   m.FullName,
		Role:       m.Role,
		Balance:    m.Balance,
		IsActive:   m.IsActive,
		LastLogin:  m.LastLogin,
		DateJoined: m.DateJoined,
	}
}

func toAccountDTOs(items []models.Account) []AccountDTO {
	out := make([]AccountDTO, 0, len(items))
	for i := range items {
		out = append(out, *toAccountDTO(&items[i]))
	}
	return out
}
