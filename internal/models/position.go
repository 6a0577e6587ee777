/**
 * @description
 * Stock and option position database models.
 * Map to the 'positions' and 'option_positions' tables in PostgreSQL.
 *
 * Stock positions are unique per (account, symbol) and carry a weighted-average
 * cost basis. Option positions are independent lots: every option buy creates a
 * new row and lots are never merged.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SharesPerContract is the option contract multiplier.
const SharesPerContract = 100

// Position represents an account's current holding in one stock symbol.
// Quantity is always > 0 while the row exists; a position sold to zero is
// deleted, never retained as a zero row.
type Position struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	AccountID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_positions_account_symbol" json:"account_id"`
	Symbol       string          `gorm:"size:12;not null;uniqueIndex:idx_positions_account_symbol" json:"symbol"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	AveragePrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"average_price"`
	// CurrentPrice is the last refreshed reference price. It is persisted on
	// refresh and retained as-is when the quote provider has no data.
	CurrentPrice decimal.Decimal `gorm:"type:decimal(20,8)" json:"current_price"`

	// Derived valuation fields, recomputed on every refresh. Not persisted.
	TotalValue        decimal.Decimal `gorm:"-" json:"total_value"`
	ProfitLoss        decimal.Decimal `gorm:"-" json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `gorm:"-" json:"profit_loss_percent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName overrides the table name used by Position to `positions`
func (Position) TableName() string {
	return "positions"
}

// BeforeCreate ensures UUID is generated if not present
func (p *Position) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// CostBasis returns the total amount paid for the currently-held shares.
func (p *Position) CostBasis() decimal.Decimal {
	return p.AveragePrice.Mul(decimal.NewFromInt(p.Quantity))
}

// OptionKind defines the contract type
type OptionKind string

const (
	OptionKindCall OptionKind = "call"
	OptionKindPut  OptionKind = "put"
)

// Valid returns true if the OptionKind is one of the defined constants
func (k OptionKind) Valid() bool {
	return k == OptionKindCall || k == OptionKindPut
}

// OptionPosition represents one option lot created by a single buy.
type OptionPosition struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	AccountID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_option_positions_account" json:"account_id"`
	Symbol     string          `gorm:"size:12;not null" json:"symbol"`
	Kind       OptionKind      `gorm:"column:kind;type:varchar(4);not null" json:"kind"`
	Strike     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"strike"`
	Expiration string          `gorm:"size:10;not null" json:"expiration"` // calendar date, YYYY-MM-DD
	Contracts  int64           `gorm:"not null" json:"contracts"`
	// EntryPremium is the per-share premium paid at entry. CurrentPremium
	// starts equal to it and only changes through an explicit premium update.
	EntryPremium   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"entry_premium"`
	CurrentPremium decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"current_premium"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName overrides the table name used by OptionPosition to `option_positions`
func (OptionPosition) TableName() string {
	return "option_positions"
}

// BeforeCreate ensures UUID is generated if not present
func (o *OptionPosition) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}

// NotionalValue returns currentPremium × contracts × 100.
func (o *OptionPosition) NotionalValue() decimal.Decimal {
	return o.CurrentPremium.
		Mul(decimal.NewFromInt(o.Contracts)).
		Mul(decimal.NewFromInt(SharesPerContract))
}
