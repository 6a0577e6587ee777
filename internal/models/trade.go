/**
 * @description
 * Trade and option trade database models.
 * Map to the 'trades' and 'option_trades' tables in PostgreSQL.
 * Both are append-only ledgers: rows are never mutated or deleted after creation.
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

// TradeAction defines the side of an executed trade
type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
)

// Valid returns true if the TradeAction is one of the defined constants
func (a TradeAction) Valid() bool {
	return a == TradeActionBuy || a == TradeActionSell
}

// Trade represents one executed stock trade
type Trade struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID       `gorm:"type:uuid;not null;index:idx_trades_account" json:"account_id"`
	Symbol    string          `gorm:"size:12;not null" json:"symbol"`
	Action    TradeAction     `gorm:"column:action;type:varchar(4);not null" json:"action"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	Total     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_trades_created" json:"created_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName overrides the table name used by Trade to `trades`
func (Trade) TableName() string {
	return "trades"
}

// BeforeCreate ensures UUID is generated if not present
func (t *Trade) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// OptionTrade represents one executed option trade
type OptionTrade struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	AccountID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_option_trades_account" json:"account_id"`
	Symbol     string          `gorm:"size:12;not null" json:"symbol"`
	Kind       OptionKind      `gorm:"column:kind;type:varchar(4);not null" json:"kind"`
	Strike     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"strike"`
	Expiration string          `gorm:"size:10;not null" json:"expiration"`
	Action     TradeAction     `gorm:"column:action;type:varchar(4);not null" json:"action"`
	Contracts  int64           `gorm:"not null" json:"contracts"`
	Premium    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"premium"`
	Total      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_option_trades_created" json:"created_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName overrides the table name used by OptionTrade to `option_trades`
func (OptionTrade) TableName() string {
	return "option_trades"
}

// BeforeCreate ensures UUID is generated if not present
func (t *OptionTrade) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
