/**
 * @description
 * Watchlist database model.
 * Maps to the 'watchlist_items' table in PostgreSQL.
 * A watchlist entry is unique per (account, symbol) and is not tied to any position.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WatchlistItem represents a symbol an account tracks for display
type WatchlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_account_symbol" json:"account_id"`
	Symbol    string    `gorm:"size:12;not null;uniqueIndex:idx_watchlist_account_symbol" json:"symbol"`
	Name      string    `gorm:"size:128" json:"name"`
	CreatedAt time.Time `json:"added_at"`

	// Associations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName overrides the table name used by WatchlistItem to `watchlist_items`
func (WatchlistItem) TableName() string {
	return "watchlist_items"
}

// BeforeCreate ensures UUID is generated if not present
func (w *WatchlistItem) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
