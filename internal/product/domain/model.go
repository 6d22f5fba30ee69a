package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	Code           string          `json:"code" gorm:"type:text;not null;uniqueIndex:ux_products_code"`
	Name           string          `json:"name" gorm:"type:text;not null"`
	CommissionRate decimal.Decimal `json:"commission_rate" gorm:"type:numeric(7,4);not null;default:0"`
	Active         bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
