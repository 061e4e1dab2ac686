package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/repository"
)

// AppreciationPeriod is how long a fixed-model property waits between appreciation steps.
const AppreciationPeriod = 3 // months

// Value update sources, used as metric labels.
const (
	sourceManual       = "manual"
	sourceAppreciation = "appreciation"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// InvestmentService executes the investment lifecycle: buying and selling
// fractional shares, updating property values and administering investment
// properties.
//
// Every read-compute-write section against a single investment property runs
// under that property's lock and inside one database transaction, so the
// shares recorded by Buy always match a value that was actually stored when
// the purchase committed.
type InvestmentService struct {
	db              *sql.DB
	propertyRepo    *repository.PropertyRepository
	ipRepo          *repository.InvestmentPropertyRepository
	investmentRepo  *repository.UserInvestmentRepository
	historyRepo     *repository.ValueHistoryRepository
	saleRepo        *repository.SaleRepository
	metrics         *metrics.Metrics
	locks           *keyedMutex
	enforceShareCap bool
	now             func() time.Time
}

// NewInvestmentService creates a new InvestmentService with the provided repository dependencies.
func NewInvestmentService(
	db *sql.DB,
	propertyRepo *repository.PropertyRepository,
	ipRepo *repository.InvestmentPropertyRepository,
	investmentRepo *repository.UserInvestmentRepository,
	historyRepo *repository.ValueHistoryRepository,
	saleRepo *repository.SaleRepository,
	m *metrics.Metrics,
	enforceShareCap bool,
) *InvestmentService {
	return &InvestmentService{
		db:              db,
		propertyRepo:    propertyRepo,
		ipRepo:          ipRepo,
		investmentRepo:  investmentRepo,
		historyRepo:     historyRepo,
		saleRepo:        saleRepo,
		metrics:         m,
		locks:           newKeyedMutex(),
		enforceShareCap: enforceShareCap,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service clock. Intended for tests.
func (s *InvestmentService) WithClock(now func() time.Time) *InvestmentService {
	s.now = now
	return s
}

// BuyParams describes a purchase.
type BuyParams struct {
	UserID               string
	InvestmentPropertyID string
	Amount               decimal.Decimal
	// ExpectedValue is the current value the buyer was quoted. When set and
	// the stored value differs, the purchase fails with ErrStaleValue.
	ExpectedValue *decimal.Decimal
}

// Buy creates a UserInvestment for params.Amount.
//
// Shares are computed as amount / current_value from the value read inside
// the purchase transaction. The investment property itself is not modified.
//
// Errors:
//   - ErrInvalidAmount when the amount is not positive, too small to buy any
//     share, or larger than the property's current value
//   - ErrInvestmentPropertyNotFound when the property does not exist
//   - ErrStaleValue when ExpectedValue no longer matches
//   - ErrOversubscribed when the share cap is enforced and would be exceeded
func (s *InvestmentService) Buy(ctx context.Context, params BuyParams) (model.UserInvestment, error) {
	if !params.Amount.IsPositive() {
		return model.UserInvestment{}, apperrors.ErrInvalidAmount
	}

	unlock := s.locks.Lock(params.InvestmentPropertyID)
	defer unlock()

	var investment model.UserInvestment
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		ip, err := s.ipRepo.WithTx(tx).GetInvestmentProperty(ctx, params.InvestmentPropertyID)
		if err != nil {
			return err
		}
		if params.ExpectedValue != nil && !params.ExpectedValue.Equal(ip.CurrentValue) {
			return apperrors.ErrStaleValue
		}
		if !ip.CurrentValue.IsPositive() {
			return apperrors.ErrDivisionByZero
		}

		shares := params.Amount.Div(ip.CurrentValue)
		if !shares.IsPositive() || shares.GreaterThan(one) {
			return apperrors.ErrInvalidAmount
		}

		if s.enforceShareCap {
			outstanding, err := s.investmentRepo.WithTx(tx).SumShares(ctx, ip.ID)
			if err != nil {
				return err
			}
			if outstanding.Add(shares).GreaterThan(one) {
				return apperrors.ErrOversubscribed
			}
		}

		investment = model.UserInvestment{
			ID:                   uuid.New().String(),
			UserID:               params.UserID,
			InvestmentPropertyID: ip.ID,
			InvestmentAmount:     params.Amount,
			Shares:               shares,
			InvestmentDate:       s.now(),
			InvestmentProperty:   ip,
		}
		return s.investmentRepo.WithTx(tx).InsertUserInvestment(ctx, investment)
	})
	if err != nil {
		return model.UserInvestment{}, storeError(err)
	}

	s.metrics.InvestmentsBought.Inc()
	logger.Get().Infow("investment purchased",
		"investment_id", investment.ID,
		"user_id", investment.UserID,
		"investment_property_id", investment.InvestmentPropertyID,
		"amount", investment.InvestmentAmount.String(),
		"shares", investment.Shares.String(),
	)

	return investment, nil
}

// Sell fully liquidates an investment at the property's current value.
//
// The investment is deleted and an InvestmentSale recording the realized value
// and gain or loss is written in the same transaction. expectedValue, when not
// nil, must equal the current value or the sale fails with ErrStaleValue.
// Returns ErrInvestmentNotFound when the investment was already sold.
func (s *InvestmentService) Sell(ctx context.Context, investmentID string, expectedValue *decimal.Decimal) (model.InvestmentSale, error) {
	existing, err := s.investmentRepo.GetUserInvestment(ctx, investmentID)
	if err != nil {
		return model.InvestmentSale{}, storeError(err)
	}

	unlock := s.locks.Lock(existing.InvestmentPropertyID)
	defer unlock()

	var sale model.InvestmentSale
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		// Re-read under the lock: the investment may have been sold meanwhile
		// and the property value may have moved.
		investment, err := s.investmentRepo.WithTx(tx).GetUserInvestment(ctx, investmentID)
		if err != nil {
			return err
		}
		currentValue := investment.InvestmentProperty.CurrentValue
		if expectedValue != nil && !expectedValue.Equal(currentValue) {
			return apperrors.ErrStaleValue
		}

		realized := currentValue.Mul(investment.Shares)
		sale = model.InvestmentSale{
			ID:                   uuid.New().String(),
			InvestmentID:         investment.ID,
			UserID:               investment.UserID,
			InvestmentPropertyID: investment.InvestmentPropertyID,
			InvestmentAmount:     investment.InvestmentAmount,
			Shares:               investment.Shares,
			RealizedValue:        realized,
			RealizedGainLoss:     realized.Sub(investment.InvestmentAmount),
			SoldAt:               s.now(),
		}

		if err := s.investmentRepo.WithTx(tx).DeleteUserInvestment(ctx, investment.ID); err != nil {
			return err
		}
		return s.saleRepo.WithTx(tx).InsertSale(ctx, sale)
	})
	if err != nil {
		return model.InvestmentSale{}, storeError(err)
	}

	s.metrics.InvestmentsSold.Inc()
	logger.Get().Infow("investment sold",
		"investment_id", sale.InvestmentID,
		"user_id", sale.UserID,
		"realized_value", sale.RealizedValue.String(),
		"gain_loss", sale.RealizedGainLoss.String(),
	)

	return sale, nil
}

// UpdateCurrentValue sets a new current value for an investment property and
// appends the matching history point, atomically.
//
// When expectedVersion is not nil the update only applies if the stored
// version still matches; a concurrent writer makes it fail with ErrStaleValue.
func (s *InvestmentService) UpdateCurrentValue(ctx context.Context, investmentPropertyID string, newValue decimal.Decimal, expectedVersion *int64) (model.InvestmentProperty, error) {
	if !newValue.IsPositive() {
		return model.InvestmentProperty{}, apperrors.ErrInvalidAmount
	}

	unlock := s.locks.Lock(investmentPropertyID)
	defer unlock()

	return s.applyValue(ctx, investmentPropertyID, newValue, expectedVersion, s.now(), sourceManual)
}

// applyValue performs the versioned value write. Callers hold the property lock.
func (s *InvestmentService) applyValue(ctx context.Context, id string, value decimal.Decimal, expectedVersion *int64, at time.Time, source string) (model.InvestmentProperty, error) {
	var updated model.InvestmentProperty
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		ip, err := s.ipRepo.WithTx(tx).GetInvestmentProperty(ctx, id)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != ip.Version {
			return apperrors.ErrStaleValue
		}

		version, err := s.ipRepo.WithTx(tx).UpdateValue(ctx, id, value, at, ip.Version)
		if err != nil {
			return err
		}

		point := model.PropertyValueHistory{
			ID:                   uuid.New().String(),
			InvestmentPropertyID: id,
			PropertyValue:        value,
			ValueDate:            at,
		}
		if err := s.historyRepo.WithTx(tx).InsertValuePoint(ctx, point); err != nil {
			return err
		}

		ip.CurrentValue = value
		ip.LastUpdateDate = at
		ip.Version = version
		updated = ip
		return nil
	})
	if err != nil {
		return model.InvestmentProperty{}, storeError(err)
	}

	s.metrics.ValueUpdates.WithLabelValues(source).Inc()
	logger.Get().Infow("investment property value updated",
		"investment_property_id", id,
		"value", value.String(),
		"version", updated.Version,
		"source", source,
	)

	return updated, nil
}

// ApplyAppreciation advances every fixed-model property whose value was last
// updated at least one appreciation period before now. Each missed period is
// applied as its own step, dated one period after the previous update:
//
//	new_value = current_value * (1 + appreciation_rate / 100), rounded to 2 places
//
// Every step goes through the same versioned write as UpdateCurrentValue and
// leaves its own history point. A property changed concurrently since it was
// listed is skipped. Returns the number of steps applied.
func (s *InvestmentService) ApplyAppreciation(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, -AppreciationPeriod, 0)

	due, err := s.ipRepo.ListDueForAppreciation(ctx, cutoff)
	if err != nil {
		return 0, storeError(err)
	}

	applied := 0
	var errs []error
	for _, ip := range due {
		if ip.AppreciationRate == nil {
			continue
		}

		steps, err := s.appreciate(ctx, ip, now)
		applied += steps
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrStaleValue), errors.Is(err, apperrors.ErrNotFound):
			logger.Get().Infow("skipping appreciation for concurrently changed property",
				"investment_property_id", ip.ID)
		default:
			errs = append(errs, fmt.Errorf("failed to appreciate %s: %w", ip.ID, err))
		}
	}

	return applied, errors.Join(errs...)
}

// appreciate applies every period of ip that has elapsed by now and returns
// how many were written.
func (s *InvestmentService) appreciate(ctx context.Context, ip model.InvestmentProperty, now time.Time) (int, error) {
	unlock := s.locks.Lock(ip.ID)
	defer unlock()

	factor := one.Add(ip.AppreciationRate.Div(hundred))
	steps := 0
	for {
		at := ip.LastUpdateDate.AddDate(0, AppreciationPeriod, 0)
		if at.After(now) {
			return steps, nil
		}

		newValue := ip.CurrentValue.Mul(factor).Round(2)
		if !newValue.IsPositive() {
			logger.Get().Warnw("skipping appreciation to non-positive value",
				"investment_property_id", ip.ID, "value", newValue.String())
			return steps, nil
		}

		version := ip.Version
		updated, err := s.applyValue(ctx, ip.ID, newValue, &version, at, sourceAppreciation)
		if err != nil {
			return steps, err
		}
		ip = updated
		steps++
	}
}

// CreateProperty stores a minimal property listing that investment properties can reference.
func (s *InvestmentService) CreateProperty(ctx context.Context, req request.CreatePropertyRequest) (model.Property, error) {
	property := model.Property{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(req.Title),
		Location:  strings.TrimSpace(req.Location),
		AgentID:   req.AgentID,
		CreatedAt: s.now(),
	}

	if err := s.propertyRepo.InsertProperty(ctx, property); err != nil {
		return model.Property{}, storeError(err)
	}
	return property, nil
}

// CreateInvestmentProperty wraps an existing property for fractional investment
// and writes the first point of its value history.
//
// Values must be positive. A fixed appreciation model needs a rate above -100
// percent; a manual model must not carry one.
func (s *InvestmentService) CreateInvestmentProperty(ctx context.Context, req request.CreateInvestmentPropertyRequest) (model.InvestmentProperty, error) {
	currentValue := req.InitialValue
	if req.CurrentValue != nil {
		currentValue = *req.CurrentValue
	}
	if !req.InitialValue.IsPositive() || !currentValue.IsPositive() {
		return model.InvestmentProperty{}, apperrors.ErrInvalidAmount
	}

	appreciation := model.AppreciationModel(req.AppreciationModel)
	if !appreciation.Valid() {
		return model.InvestmentProperty{}, apperrors.ErrInvalidAppreciationModel
	}
	switch appreciation {
	case model.AppreciationFixed:
		if req.AppreciationRate == nil || req.AppreciationRate.LessThanOrEqual(hundred.Neg()) {
			return model.InvestmentProperty{}, apperrors.ErrInvalidAppreciationRate
		}
	case model.AppreciationManual:
		if req.AppreciationRate != nil {
			return model.InvestmentProperty{}, apperrors.ErrInvalidAppreciationRate
		}
	}

	now := s.now()
	ip := model.InvestmentProperty{
		ID:                uuid.New().String(),
		PropertyID:        req.PropertyID,
		InitialValue:      req.InitialValue,
		CurrentValue:      currentValue,
		AppreciationModel: appreciation,
		AppreciationRate:  req.AppreciationRate,
		LastUpdateDate:    now,
		Version:           1,
		CreatedAt:         now,
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		property, err := s.propertyRepo.WithTx(tx).GetProperty(ctx, req.PropertyID)
		if err != nil {
			return err
		}
		ip.Property = property

		if err := s.ipRepo.WithTx(tx).InsertInvestmentProperty(ctx, ip); err != nil {
			return err
		}
		return s.historyRepo.WithTx(tx).InsertValuePoint(ctx, model.PropertyValueHistory{
			ID:                   uuid.New().String(),
			InvestmentPropertyID: ip.ID,
			PropertyValue:        currentValue,
			ValueDate:            now,
		})
	})
	if err != nil {
		return model.InvestmentProperty{}, storeError(err)
	}

	logger.Get().Infow("investment property created",
		"investment_property_id", ip.ID,
		"property_id", ip.PropertyID,
		"current_value", ip.CurrentValue.String(),
		"appreciation_model", ip.AppreciationModel,
	)

	return ip, nil
}

// GetInvestmentProperty retrieves an investment property with its listing.
func (s *InvestmentService) GetInvestmentProperty(ctx context.Context, id string) (model.InvestmentProperty, error) {
	ip, err := s.ipRepo.GetInvestmentProperty(ctx, id)
	return ip, storeError(err)
}

// DeleteInvestmentProperty removes an investment property together with its
// investments and value history.
func (s *InvestmentService) DeleteInvestmentProperty(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.ipRepo.DeleteInvestmentProperty(ctx, id); err != nil {
		return storeError(err)
	}

	logger.Get().Infow("investment property deleted", "investment_property_id", id)
	return nil
}

// ListOpportunities lists investment properties open for investment. When
// excludeUserID is set, properties that user already holds are left out.
func (s *InvestmentService) ListOpportunities(ctx context.Context, excludeUserID string) ([]model.InvestmentProperty, error) {
	var (
		properties []model.InvestmentProperty
		err        error
	)
	if excludeUserID == "" {
		properties, err = s.ipRepo.ListInvestmentProperties(ctx)
	} else {
		properties, err = s.ipRepo.ListInvestmentPropertiesExcludingUser(ctx, excludeUserID)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return properties, nil
}

// GetValueHistory returns an investment property's value history ordered by date.
func (s *InvestmentService) GetValueHistory(ctx context.Context, id string) ([]model.PropertyValueHistory, error) {
	if _, err := s.ipRepo.GetInvestmentProperty(ctx, id); err != nil {
		return nil, storeError(err)
	}

	history, err := s.historyRepo.ListValueHistory(ctx, []string{id})
	if err != nil {
		return nil, storeError(err)
	}
	return history, nil
}
