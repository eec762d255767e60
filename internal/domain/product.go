package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	SalePrice     *decimal.Decimal
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice is the sale price when one is set, otherwise the base price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
