package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserInvestment is a user's fractional stake in an investment property.
// Shares is fixed at purchase time as InvestmentAmount / CurrentValue.
type UserInvestment struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"userId"`
	InvestmentPropertyID string             `json:"investmentPropertyId"`
	InvestmentAmount     decimal.Decimal    `json:"investmentAmount"`
	Shares               decimal.Decimal    `json:"shares"`
	InvestmentDate       time.Time          `json:"investmentDate"`
	InvestmentProperty   InvestmentProperty `json:"investmentProperty"`
}

// InvestmentSale records the outcome of a full liquidation.
// It is written in the same transaction that removes the UserInvestment.
type InvestmentSale struct {
	ID                   string          `json:"id"`
	InvestmentID         string          `json:"investmentId"`
	UserID               string          `json:"userId"`
	InvestmentPropertyID string          `json:"investmentPropertyId"`
	InvestmentAmount     decimal.Decimal `json:"investmentAmount"`
	Shares               decimal.Decimal `json:"shares"`
	RealizedValue        decimal.Decimal `json:"realizedValue"`
	RealizedGainLoss     decimal.Decimal `json:"realizedGainLoss"`
	SoldAt               time.Time       `json:"soldAt"`
}
