package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product in a member's cart. UnitPrice is the effective
// product price captured when the line was added.
type CartLine struct {
	ID        int64           `json:"id"`
	MemberID  int64           `json:"member_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	MemberID int64      `json:"member_id"`
	Lines    []CartLine `json:"lines"`
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the number of distinct lines, not the sum of quantities.
func (c *Cart) ItemCount() int {
	return len(c.Lines)
}

type ValidationErrorType string

const (
	ValidationOutOfStock      ValidationErrorType = "OUT_OF_STOCK"
	ValidationPriceChanged    ValidationErrorType = "PRICE_CHANGED"
	ValidationProductNotFound ValidationErrorType = "PRODUCT_NOT_FOUND"
	ValidationProductInactive ValidationErrorType = "PRODUCT_INACTIVE"
)

type ValidationError struct {
	Type      ValidationErrorType `json:"type"`
	ProductID int64               `json:"product_id"`
	Message   string              `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationResult) Add(t ValidationErrorType, productID int64, message string) {
	v.Valid = false
	v.Errors = append(v.Errors, ValidationError{Type: t, ProductID: productID, Message: message})
}

func (v *ValidationResult) Has(t ValidationErrorType) bool {
	for _, e := range v.Errors {
		if e.Type == t {
			return true
		}
	}
	return false
}
