package request

import "github.com/shopspring/decimal"

// BuyRequest purchases shares of an investment property. ExpectedValue is the
// current value the caller was shown; the purchase is rejected if it moved.
type BuyRequest struct {
	UserID               string           `json:"userId" validate:"required,uuid"`
	InvestmentPropertyID string           `json:"investmentPropertyId" validate:"required,uuid"`
	Amount               decimal.Decimal  `json:"amount"`
	ExpectedValue        *decimal.Decimal `json:"expectedValue,omitempty"`
}

// SellRequest liquidates an investment, optionally guarded by the value the caller saw.
type SellRequest struct {
	ExpectedValue *decimal.Decimal `json:"expectedValue,omitempty"`
}
