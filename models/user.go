package models

import (
	"time"
)

// User model definition. Rating and token balance are only ever
// mutated server-side, by settlement and by the ledger.
type User struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"not null" json:"phone"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Rating       int       `gorm:"not null;default:1200" json:"rating"`
	Tokens       int       `gorm:"not null;default:100" json:"tokens"`
	GamesPlayed  int       `gorm:"not null;default:0" json:"gamesPlayed"`
	Wins         int       `gorm:"not null;default:0" json:"wins"`
	Losses       int       `gorm:"not null;default:0" json:"losses"`
	Draws        int       `gorm:"not null;default:0" json:"draws"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the profile slice returned in auth responses.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Tokens   int    `json:"tokens"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Rating:   u.Rating,
		Tokens:   u.Tokens,
	}
}
