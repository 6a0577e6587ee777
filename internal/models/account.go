/**
 * @description
 * Account database model.
 * Maps to the 'accounts' table in PostgreSQL.
 * Each account holds the user's virtual cash balance.
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

// Account represents a registered user in the system.
// Cash is never allowed to go negative; trade admission enforces that,
// not the model itself.
type Account struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Username     string          `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `gorm:"column:password_hash" json:"-"`
	Cash         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"cash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by Account to `accounts`
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate ensures UUID is generated if not present (though DB usually handles this)
func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
