package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/repository"
	"github.com/ndewijer/Property-Investment-Backend/internal/valuation"
)

// PortfolioService loads a user's holdings from the store and values them
// with the valuation engine.
type PortfolioService struct {
	investmentRepo *repository.UserInvestmentRepository
	historyRepo    *repository.ValueHistoryRepository
	saleRepo       *repository.SaleRepository
	ipRepo         *repository.InvestmentPropertyRepository
}

// NewPortfolioService creates a new PortfolioService with the provided repository dependencies.
func NewPortfolioService(
	investmentRepo *repository.UserInvestmentRepository,
	historyRepo *repository.ValueHistoryRepository,
	saleRepo *repository.SaleRepository,
	ipRepo *repository.InvestmentPropertyRepository,
) *PortfolioService {
	return &PortfolioService{
		investmentRepo: investmentRepo,
		historyRepo:    historyRepo,
		saleRepo:       saleRepo,
		ipRepo:         ipRepo,
	}
}

// GetUserPortfolio values every open investment of the user and builds the
// monthly performance series. Realized results of past sales are summed from
// the sale ledger.
//
// A user without investments gets zero metrics and empty lists, not an error.
func (s *PortfolioService) GetUserPortfolio(ctx context.Context, userID string) (model.Portfolio, error) {
	investments, history, err := s.loadHoldings(ctx, userID)
	if err != nil {
		return model.Portfolio{}, err
	}

	positions, err := valuation.Positions(investments)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to value positions: %w", err)
	}

	sales, err := s.saleRepo.ListSalesByUser(ctx, userID)
	if err != nil {
		return model.Portfolio{}, storeError(err)
	}

	realized := decimal.Zero
	proceeds := decimal.Zero
	for _, sale := range sales {
		realized = realized.Add(sale.RealizedGainLoss)
		proceeds = proceeds.Add(sale.RealizedValue)
	}

	return model.Portfolio{
		UserID:                userID,
		Metrics:               valuation.ComputePortfolioMetrics(investments),
		Positions:             positions,
		Performance:           valuation.BuildPerformanceSeries(history, investments),
		TotalRealizedGainLoss: realized,
		TotalSaleProceeds:     proceeds,
	}, nil
}

// GetPerformanceSeries returns only the monthly performance series of the user's open investments.
func (s *PortfolioService) GetPerformanceSeries(ctx context.Context, userID string) ([]model.PerformancePoint, error) {
	investments, history, err := s.loadHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return valuation.BuildPerformanceSeries(history, investments), nil
}

// GetDashboard loads the user's portfolio and the properties they do not
// hold yet concurrently.
func (s *PortfolioService) GetDashboard(ctx context.Context, userID string) (model.Dashboard, error) {
	var dashboard model.Dashboard

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		portfolio, err := s.GetUserPortfolio(gctx, userID)
		if err != nil {
			return err
		}
		dashboard.Portfolio = portfolio
		return nil
	})

	g.Go(func() error {
		opportunities, err := s.ipRepo.ListInvestmentPropertiesExcludingUser(gctx, userID)
		if err != nil {
			return storeError(err)
		}
		dashboard.Opportunities = opportunities
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}
	return dashboard, nil
}

// loadHoldings returns the user's investments and the value history of the
// properties they hold.
func (s *PortfolioService) loadHoldings(ctx context.Context, userID string) ([]model.UserInvestment, []model.PropertyValueHistory, error) {
	investments, err := s.investmentRepo.ListUserInvestments(ctx, userID)
	if err != nil {
		return nil, nil, storeError(err)
	}

	seen := make(map[string]bool, len(investments))
	propertyIDs := make([]string, 0, len(investments))
	for _, investment := range investments {
		if !seen[investment.InvestmentPropertyID] {
			seen[investment.InvestmentPropertyID] = true
			propertyIDs = append(propertyIDs, investment.InvestmentPropertyID)
		}
	}

	history, err := s.historyRepo.ListValueHistory(ctx, propertyIDs)
	if err != nil {
		return nil, nil, storeError(err)
	}

	return investments, history, nil
}
