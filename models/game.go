package models

import (
	"time"
)

// Game results. The server records whatever the board reports and never
// re-validates it against the move list.
const (
	ResultWhite = "white"
	ResultBlack = "black"
	ResultDraw  = "draw"
)

// ValidResult reports whether r is one of the three terminal results.
func ValidResult(r string) bool {
	return r == ResultWhite || r == ResultBlack || r == ResultDraw
}

// Game model definition. BlackPlayerID is set at most once (join) and
// Result at most once (settlement); after Result is set the row is
// terminal except for EndTime.
type Game struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	WhitePlayerID string     `gorm:"not null;index:idx_games_players" json:"whitePlayerId"`
	BlackPlayerID *string    `gorm:"index:idx_games_players" json:"blackPlayerId,omitempty"`
	Result        *string    `json:"result,omitempty"`
	PGN           string     `gorm:"not null;default:''" json:"pgn"`
	StartTime     time.Time  `gorm:"not null" json:"startTime"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	TokensPrize   int        `gorm:"not null;default:0" json:"tokensPrize"`

	WhitePlayer *User `gorm:"foreignKey:WhitePlayerID;constraint:OnDelete:CASCADE" json:"-"`
	BlackPlayer *User `gorm:"foreignKey:BlackPlayerID;constraint:OnDelete:CASCADE" json:"-"`
}

// Finished reports whether the game has a recorded result.
func (g *Game) Finished() bool {
	return g.Result != nil
}
