package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	SetCommissionRate(ctx context.Context, req SetCommissionRateRequest) (*Response, error)
}

type ListRequest struct {
	Name    string
	Active  *bool
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Code           string  `json:"code" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	CommissionRate *string `json:"commission_rate"`
	Active         *bool   `json:"active"`
}

type SetCommissionRateRequest struct {
	ProductID      string `json:"-"`
	CommissionRate string `json:"commission_rate"`
}

type Response struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	CommissionRate string    `json:"commission_rate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	ErrInvalidCode           = errors.New("invalid_code")
	ErrInvalidName           = errors.New("invalid_name")
	ErrNotFound              = errors.New("not_found")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
)

// InvalidCommissionRateError wraps ErrInvalidCommissionRate with the value
// that failed validation.
func InvalidCommissionRateError(value string) error {
	return fmt.Errorf("%w: commission rate %q must be between 0 and 100", ErrInvalidCommissionRate, value)
}
