package request

import "github.com/shopspring/decimal"

type CreatePropertyRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Location string `json:"location" validate:"max=200"`
	AgentID  string `json:"agentId" validate:"omitempty,uuid"`
}

// CreateInvestmentPropertyRequest wraps an existing property for fractional investment.
// CurrentValue defaults to InitialValue when omitted.
type CreateInvestmentPropertyRequest struct {
	PropertyID        string           `json:"propertyId" validate:"required,uuid"`
	InitialValue      decimal.Decimal  `json:"initialValue"`
	CurrentValue      *decimal.Decimal `json:"currentValue,omitempty"`
	AppreciationModel string           `json:"appreciationModel" validate:"required,oneof=fixed manual"`
	AppreciationRate  *decimal.Decimal `json:"appreciationRate,omitempty"`
}

type UpdateValueRequest struct {
	CurrentValue    decimal.Decimal `json:"currentValue"`
	ExpectedVersion *int64          `json:"expectedVersion,omitempty"`
}
