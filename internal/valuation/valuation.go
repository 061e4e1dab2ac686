// Package valuation computes portfolio metrics, per-investment ROI and the
// monthly performance series from in-memory investment records.
//
// Every function is pure: no I/O, no shared state, and the result depends
// only on the arguments. Money and share fractions are decimal so repeated
// summation across many positions and periods does not drift.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// MonthKeyLayout formats a value date into its performance bucket key.
const MonthKeyLayout = "2006-01"

var hundred = decimal.NewFromInt(100)

// PositionValue returns the part of the property's current value the investment is entitled to.
// An investment that carries no property value is worth zero.
func PositionValue(investment model.UserInvestment) decimal.Decimal {
	return investment.InvestmentProperty.CurrentValue.Mul(investment.Shares)
}

// ComputePortfolioMetrics sums current value and invested amount across all investments.
// An empty set yields zero metrics.
func ComputePortfolioMetrics(investments []model.UserInvestment) model.PortfolioMetrics {
	currentValue := decimal.Zero
	invested := decimal.Zero

	for _, investment := range investments {
		currentValue = currentValue.Add(PositionValue(investment))
		invested = invested.Add(investment.InvestmentAmount)
	}

	return model.PortfolioMetrics{
		CurrentValue:  currentValue,
		TotalInvested: invested,
		TotalGains:    currentValue.Sub(invested),
	}
}

// ComputeROI returns the investment's return as a percentage:
//
//	((current_value * shares) - investment_amount) / investment_amount * 100
//
// Returns ErrDivisionByZero when the investment amount is zero.
func ComputeROI(investment model.UserInvestment) (decimal.Decimal, error) {
	if investment.InvestmentAmount.IsZero() {
		return decimal.Zero, apperrors.ErrDivisionByZero
	}

	gain := PositionValue(investment).Sub(investment.InvestmentAmount)
	return gain.Div(investment.InvestmentAmount).Mul(hundred), nil
}

// Positions values every investment individually, preserving input order.
func Positions(investments []model.UserInvestment) ([]model.Position, error) {
	positions := make([]model.Position, 0, len(investments))

	for _, investment := range investments {
		roi, err := ComputeROI(investment)
		if err != nil {
			return nil, err
		}

		value := PositionValue(investment)
		positions = append(positions, model.Position{
			Investment:    investment,
			PositionValue: value,
			GainLoss:      value.Sub(investment.InvestmentAmount),
			ROI:           roi,
		})
	}

	return positions, nil
}

// BuildPerformanceSeries buckets history points by UTC year-month of their
// value date. Each point contributes property_value times the shares the
// caller holds in that property; points for properties the caller does not
// hold are ignored. Several investments in the same property add their
// shares together.
//
// The result is sorted ascending by month and contains each month once.
// It is recomputed from scratch on every call.
func BuildPerformanceSeries(history []model.PropertyValueHistory, investments []model.UserInvestment) []model.PerformancePoint {
	sharesByProperty := make(map[string]decimal.Decimal, len(investments))
	for _, investment := range investments {
		held := sharesByProperty[investment.InvestmentPropertyID]
		sharesByProperty[investment.InvestmentPropertyID] = held.Add(investment.Shares)
	}

	valueByMonth := make(map[string]decimal.Decimal)
	for _, point := range history {
		shares, ok := sharesByProperty[point.InvestmentPropertyID]
		if !ok {
			continue
		}

		month := point.ValueDate.UTC().Format(MonthKeyLayout)
		valueByMonth[month] = valueByMonth[month].Add(point.PropertyValue.Mul(shares))
	}

	series := make([]model.PerformancePoint, 0, len(valueByMonth))
	for month, value := range valueByMonth {
		series = append(series, model.PerformancePoint{Month: month, Value: value})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Month < series[j].Month
	})

	return series
}
