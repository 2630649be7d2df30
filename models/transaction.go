package models

import (
	"time"
)

// Token transaction types. "penalty" doubles as the stake escrow entry
// when a wagered game is created or joined.
const (
	TransactionWin     = "win"
	TransactionLoss    = "loss"
	TransactionReward  = "reward"
	TransactionPenalty = "penalty"
)

// ValidTransactionType reports whether t is a known ledger entry type.
func ValidTransactionType(t string) bool {
	switch t {
	case TransactionWin, TransactionLoss, TransactionReward, TransactionPenalty:
		return true
	}
	return false
}

// TokenTransaction is an immutable ledger entry. Rows are append-only:
// nothing in the server updates or deletes them.
type TokenTransaction struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"not null;index" json:"userId"`
	Amount      int       `gorm:"not null" json:"amount"`
	Type        string    `gorm:"not null" json:"type"`
	Description string    `gorm:"not null" json:"description"`
	GameID      *string   `json:"gameId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Game *Game `gorm:"foreignKey:GameID;constraint:OnDelete:SET NULL" json:"-"`
}
