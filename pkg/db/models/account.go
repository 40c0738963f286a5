package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farlliant/tokopos-backend/pkg/enums"
)

// Account is a registered user/customer. Accounts are deactivated, never
// deleted, so historical transactions keep their reference.
type Account struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string          `gorm:"column:username;not null;uniqueIndex"`
	Email        string          `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FullName     *string         `gorm:"column:full_name"`
	Role         enums.Role      `gorm:"column:role;not null;default:staff"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLogin    *time.Time      `gorm:"column:last_login"`
	DateJoined   time.Time       `gorm:"column:date_joined;autoCreateTime"`
}

// TableName overrides the GORM default.
func (Account) TableName() string {
	return "accounts"
}
