package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property represents a physical listing that can be wrapped for fractional investment.
type Property struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	AgentID   string    `json:"agentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AppreciationModel governs how an investment property's current value changes over time.
type AppreciationModel string

const (
	// AppreciationFixed applies AppreciationRate percent every quarter.
	AppreciationFixed AppreciationModel = "fixed"
	// AppreciationManual leaves value changes to an administrator.
	AppreciationManual AppreciationModel = "manual"
)

// Valid reports whether m is a known appreciation model.
func (m AppreciationModel) Valid() bool {
	return m == AppreciationFixed || m == AppreciationManual
}

// InvestmentProperty wraps one Property for fractional investment.
// CurrentValue is the single denominator every outstanding UserInvestment is valued against.
type InvestmentProperty struct {
	ID                string            `json:"id"`
	PropertyID        string            `json:"propertyId"`
	InitialValue      decimal.Decimal   `json:"initialValue"`
	CurrentValue      decimal.Decimal   `json:"currentValue"`
	AppreciationModel AppreciationModel `json:"appreciationModel"`
	AppreciationRate  *decimal.Decimal  `json:"appreciationRate,omitempty"` // Percent per quarter, fixed model only
	LastUpdateDate    time.Time         `json:"lastUpdateDate"`
	Version           int64             `json:"version"` // Incremented on every value update
	CreatedAt         time.Time         `json:"createdAt"`
	Property          Property          `json:"property"`
}

// PropertyValueHistory is an append-only point in an investment property's value series.
type PropertyValueHistory struct {
	ID                   string          `json:"id"`
	InvestmentPropertyID string          `json:"investmentPropertyId"`
	PropertyValue        decimal.Decimal `json:"propertyValue"`
	ValueDate            time.Time       `json:"valueDate"`
}
