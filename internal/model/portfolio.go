package model

import "github.com/shopspring/decimal"

// PortfolioMetrics aggregates a user's open positions.
type PortfolioMetrics struct {
	CurrentValue  decimal.Decimal `json:"currentValue"`  // Σ current_value * shares
	TotalInvested decimal.Decimal `json:"totalInvested"` // Σ investment_amount
	TotalGains    decimal.Decimal `json:"totalGains"`    // CurrentValue - TotalInvested
}

// Position is a single investment valued against its property's current value.
type Position struct {
	Investment    UserInvestment  `json:"investment"`
	PositionValue decimal.Decimal `json:"positionValue"`
	GainLoss      decimal.Decimal `json:"gainLoss"`
	ROI           decimal.Decimal `json:"roi"` // Percent
}

// PerformancePoint is one month of a user's aggregate position value.
type PerformancePoint struct {
	Month string          `json:"month"` // YYYY-MM
	Value decimal.Decimal `json:"value"`
}

// Portfolio is the full valuation of a user's holdings.
type Portfolio struct {
	UserID                string             `json:"userId"`
	Metrics               PortfolioMetrics   `json:"metrics"`
	Positions             []Position         `json:"positions"`
	Performance           []PerformancePoint `json:"performance"`
	TotalRealizedGainLoss decimal.Decimal    `json:"totalRealizedGainLoss"`
	TotalSaleProceeds     decimal.Decimal    `json:"totalSaleProceeds"`
}

// Dashboard combines a user's portfolio with the properties they can still invest in.
type Dashboard struct {
	Portfolio     Portfolio            `json:"portfolio"`
	Opportunities []InvestmentProperty `json:"opportunities"`
}
