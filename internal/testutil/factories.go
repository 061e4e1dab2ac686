package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// timeLayout matches the timestamp format the repositories write.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// PropertyBuilder provides a fluent interface for creating test property listings.
//
// Example usage:
//
//	// Simple creation with defaults
//	property := testutil.NewProperty().Build(t, db)
//
//	// Customized property
//	property := testutil.NewProperty().
//	    WithTitle("Lekki Duplex").
//	    WithLocation("Lekki, Lagos").
//	    Build(t, db)
type PropertyBuilder struct {
	ID        string
	Title     string
	Location  string
	AgentID   string
	CreatedAt time.Time
}

// NewProperty creates a PropertyBuilder with sensible defaults.
func NewProperty() *PropertyBuilder {
	return &PropertyBuilder{
		ID:        MakeID(),
		Title:     MakePropertyTitle("Test Property"),
		Location:  RandomLocation(),
		AgentID:   MakeID(),
		CreatedAt: FixedNow.AddDate(-1, 0, 0),
	}
}

// WithID sets a custom ID.
func (b *PropertyBuilder) WithID(id string) *PropertyBuilder {
	b.ID = id
	return b
}

// WithTitle sets a custom title.
func (b *PropertyBuilder) WithTitle(title string) *PropertyBuilder {
	b.Title = title
	return b
}

// WithLocation sets a custom location.
func (b *PropertyBuilder) WithLocation(location string) *PropertyBuilder {
	b.Location = location
	return b
}

// Build creates the property in the database and returns it.
func (b *PropertyBuilder) Build(t *testing.T, db *sql.DB) model.Property {
	t.Helper()

	query := `
		INSERT INTO property (id, title, location, agent_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Title, b.Location, b.AgentID, formatTime(b.CreatedAt))
	if err != nil {
		t.Fatalf("Failed to create test property: %v", err)
	}

	return model.Property{
		ID:        b.ID,
		Title:     b.Title,
		Location:  b.Location,
		AgentID:   b.AgentID,
		CreatedAt: b.CreatedAt.UTC(),
	}
}

// InvestmentPropertyBuilder provides a fluent interface for creating test investment properties.
// Build creates the referenced property listing as well unless WithProperty was used.
//
// Example usage:
//
//	ip := testutil.NewInvestmentProperty().
//	    WithCurrentValue("10000000").
//	    WithFixedRate("5").
//	    Build(t, db)
type InvestmentPropertyBuilder struct {
	ID                string
	Property          *model.Property
	InitialValue      decimal.Decimal
	CurrentValue      decimal.Decimal
	AppreciationModel model.AppreciationModel
	AppreciationRate  *decimal.Decimal
	LastUpdateDate    time.Time
	Version           int64
	CreatedAt         time.Time
	SkipHistory       bool
}

// NewInvestmentProperty creates an InvestmentPropertyBuilder with sensible defaults:
// a manual-model property worth ₦10,000,000.
func NewInvestmentProperty() *InvestmentPropertyBuilder {
	value := decimal.NewFromInt(10_000_000)
	return &InvestmentPropertyBuilder{
		ID:                MakeID(),
		InitialValue:      value,
		CurrentValue:      value,
		AppreciationModel: model.AppreciationManual,
		LastUpdateDate:    FixedNow.AddDate(0, -1, 0),
		Version:           1,
		CreatedAt:         FixedNow.AddDate(0, -6, 0),
	}
}

// WithID sets a custom ID.
func (b *InvestmentPropertyBuilder) WithID(id string) *InvestmentPropertyBuilder {
	b.ID = id
	return b
}

// WithProperty links an existing property listing instead of creating one.
func (b *InvestmentPropertyBuilder) WithProperty(p model.Property) *InvestmentPropertyBuilder {
	b.Property = &p
	return b
}

// WithValue sets both the initial and current value.
func (b *InvestmentPropertyBuilder) WithValue(value string) *InvestmentPropertyBuilder {
	b.InitialValue = decimal.RequireFromString(value)
	b.CurrentValue = b.InitialValue
	return b
}

// WithCurrentValue sets the current value only.
func (b *InvestmentPropertyBuilder) WithCurrentValue(value string) *InvestmentPropertyBuilder {
	b.CurrentValue = decimal.RequireFromString(value)
	return b
}

// WithFixedRate switches to the fixed appreciation model with the given quarterly percentage.
func (b *InvestmentPropertyBuilder) WithFixedRate(rate string) *InvestmentPropertyBuilder {
	r := decimal.RequireFromString(rate)
	b.AppreciationModel = model.AppreciationFixed
	b.AppreciationRate = &r
	return b
}

// WithLastUpdateDate sets when the value was last updated.
func (b *InvestmentPropertyBuilder) WithLastUpdateDate(date time.Time) *InvestmentPropertyBuilder {
	b.LastUpdateDate = date
	return b
}

// WithoutHistory skips writing the initial value history point.
func (b *InvestmentPropertyBuilder) WithoutHistory() *InvestmentPropertyBuilder {
	b.SkipHistory = true
	return b
}

// Build creates the investment property in the database and returns it.
func (b *InvestmentPropertyBuilder) Build(t *testing.T, db *sql.DB) model.InvestmentProperty {
	t.Helper()

	property := b.Property
	if property == nil {
		p := NewProperty().Build(t, db)
		property = &p
	}

	var rate sql.NullString
	if b.AppreciationRate != nil {
		rate = sql.NullString{String: b.AppreciationRate.String(), Valid: true}
	}

	query := `
		INSERT INTO investment_property (
			id, property_id, initial_value, current_value, appreciation_model,
			appreciation_rate, last_update_date, version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID,
		property.ID,
		b.InitialValue.String(),
		b.CurrentValue.String(),
		string(b.AppreciationModel),
		rate,
		formatTime(b.LastUpdateDate),
		b.Version,
		formatTime(b.CreatedAt),
	)
	if err != nil {
		t.Fatalf("Failed to create test investment property: %v", err)
	}

	if !b.SkipHistory {
		NewValuePoint(b.ID, b.CurrentValue.String(), b.LastUpdateDate).Build(t, db)
	}

	return model.InvestmentProperty{
		ID:                b.ID,
		PropertyID:        property.ID,
		InitialValue:      b.InitialValue,
		CurrentValue:      b.CurrentValue,
		AppreciationModel: b.AppreciationModel,
		AppreciationRate:  b.AppreciationRate,
		LastUpdateDate:    b.LastUpdateDate.UTC(),
		Version:           b.Version,
		CreatedAt:         b.CreatedAt.UTC(),
		Property:          *property,
	}
}

// UserInvestmentBuilder provides a fluent interface for creating test investments.
// Shares default to amount / current value of the investment property.
//
// Example usage:
//
//	investment := testutil.NewUserInvestment(userID, ip).
//	    WithAmount("500000").
//	    Build(t, db)
type UserInvestmentBuilder struct {
	ID                 string
	UserID             string
	InvestmentProperty model.InvestmentProperty
	Amount             decimal.Decimal
	Shares             *decimal.Decimal
	InvestmentDate     time.Time
}

// NewUserInvestment creates a UserInvestmentBuilder for a ₦1,000,000 purchase.
func NewUserInvestment(userID string, ip model.InvestmentProperty) *UserInvestmentBuilder {
	return &UserInvestmentBuilder{
		ID:                 MakeID(),
		UserID:             userID,
		InvestmentProperty: ip,
		Amount:             decimal.NewFromInt(1_000_000),
		InvestmentDate:     FixedNow.AddDate(0, -2, 0),
	}
}

// WithAmount sets the investment amount.
func (b *UserInvestmentBuilder) WithAmount(amount string) *UserInvestmentBuilder {
	b.Amount = decimal.RequireFromString(amount)
	return b
}

// WithShares overrides the computed shares.
func (b *UserInvestmentBuilder) WithShares(shares string) *UserInvestmentBuilder {
	s := decimal.RequireFromString(shares)
	b.Shares = &s
	return b
}

// WithInvestmentDate sets the purchase date.
func (b *UserInvestmentBuilder) WithInvestmentDate(date time.Time) *UserInvestmentBuilder {
	b.InvestmentDate = date
	return b
}

// Build creates the investment in the database and returns it.
func (b *UserInvestmentBuilder) Build(t *testing.T, db *sql.DB) model.UserInvestment {
	t.Helper()

	shares := b.Amount.Div(b.InvestmentProperty.CurrentValue)
	if b.Shares != nil {
		shares = *b.Shares
	}

	query := `
		INSERT INTO user_investment (id, user_id, investment_property_id, investment_amount, shares, investment_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID,
		b.UserID,
		b.InvestmentProperty.ID,
		b.Amount.String(),
		shares.String(),
		formatTime(b.InvestmentDate),
	)
	if err != nil {
		t.Fatalf("Failed to create test user investment: %v", err)
	}

	return model.UserInvestment{
		ID:                   b.ID,
		UserID:               b.UserID,
		InvestmentPropertyID: b.InvestmentProperty.ID,
		InvestmentAmount:     b.Amount,
		Shares:               shares,
		InvestmentDate:       b.InvestmentDate.UTC(),
		InvestmentProperty:   b.InvestmentProperty,
	}
}

// ValuePointBuilder creates property value history points.
type ValuePointBuilder struct {
	ID                   string
	InvestmentPropertyID string
	Value                decimal.Decimal
	Date                 time.Time
}

// NewValuePoint creates a ValuePointBuilder.
//
// Example usage:
//
//	testutil.NewValuePoint(ip.ID, "12000000", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).Build(t, db)
func NewValuePoint(investmentPropertyID, value string, date time.Time) *ValuePointBuilder {
	return &ValuePointBuilder{
		ID:                   MakeID(),
		InvestmentPropertyID: investmentPropertyID,
		Value:                decimal.RequireFromString(value),
		Date:                 date,
	}
}

// Build creates the history point in the database and returns it.
func (b *ValuePointBuilder) Build(t *testing.T, db *sql.DB) model.PropertyValueHistory {
	t.Helper()

	query := `
		INSERT INTO property_value_history (id, investment_property_id, property_value, value_date)
		VALUES (?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.InvestmentPropertyID, b.Value.String(), formatTime(b.Date))
	if err != nil {
		t.Fatalf("Failed to create test value history point: %v", err)
	}

	return model.PropertyValueHistory{
		ID:                   b.ID,
		InvestmentPropertyID: b.InvestmentPropertyID,
		PropertyValue:        b.Value,
		ValueDate:            b.Date.UTC(),
	}
}

// Convenience functions

// CreateInvestmentProperty creates a manual-model investment property with the given value.
//
// Example usage:
//
//	ip := testutil.CreateInvestmentProperty(t, db, "10000000")
func CreateInvestmentProperty(t *testing.T, db *sql.DB, value string) model.InvestmentProperty {
	t.Helper()
	return NewInvestmentProperty().WithValue(value).Build(t, db)
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	//#nosec G202 -- table names come from test code
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}
