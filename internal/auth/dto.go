package auth

import (
	"github.com/farlliant/tokopos-backend/internal/accounts"
)

// LoginRequest is the credential payload accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token and the authenticated account.
type LoginResponse struct {
	Token   string              `json:"token"`
	Account accounts.AccountDTO `json:"account"`
}
