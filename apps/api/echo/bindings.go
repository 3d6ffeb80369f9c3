package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	DemoLoginRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	LoginResponse struct {
		Token     string             `json:"token"`
		Identity  *identity.Identity `json:"identity"`
		Dashboard string             `json:"dashboard"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	DashboardResponse struct {
		Dashboard string `json:"dashboard"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (dr *DemoLoginRequest) Validate(validate *validator.Validate) error {
	dr.Email = core.CleanString(dr.Email, true /* lower */)
	return validate.Struct(dr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
