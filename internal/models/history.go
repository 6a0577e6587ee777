/**
 * @description
 * Portfolio history database model.
 * Maps to the 'portfolio_history' table in PostgreSQL.
 * Points are appended on portfolio reads and pruned to a bounded window.
 *
 * @dependencies
 * - github.com/google/uuid
 * - github.com/shopspring/decimal
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortfolioHistoryPoint represents one sampled total portfolio value
type PortfolioHistoryPoint struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_portfolio_history_account_time" json:"account_id"`
	TotalValue decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_value"`
	Timestamp  time.Time       `gorm:"index:idx_portfolio_history_account_time" json:"timestamp"`
}

// TableName overrides the table name used by PortfolioHistoryPoint to `portfolio_history`
func (PortfolioHistoryPoint) TableName() string {
	return "portfolio_history"
}
