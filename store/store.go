package store

import (
	"context"
	"errors"

	"echecs/models"
)

var (
	// ErrNotFound signals a missing user or game.
	ErrNotFound = errors.New("store: record not found")

	// ErrInsufficientTokens signals a ledger append whose debit would
	// take the balance below zero.
	ErrInsufficientTokens = errors.New("store: insufficient tokens")

	// ErrDuplicate signals a unique-constraint violation (username, email).
	ErrDuplicate = errors.New("store: duplicate record")

	// ErrUnknownColumn signals a partial update naming a column outside
	// the entity's updatable set.
	ErrUnknownColumn = errors.New("store: unknown update column")
)

// Store is the durable ledger-store contract: users, games and token
// transactions keyed by opaque IDs. Partial updates take a sparse
// column map; reserved columns (id, created_at) are dropped, unknown
// ones rejected. Transaction rows are append-only and every append
// applies its amount to the cached user balance in the same database
// transaction, so the balance and the transaction sum cannot drift.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error)

	CreateGame(ctx context.Context, game *models.Game) error
	GameByID(ctx context.Context, id string) (*models.Game, error)
	GamesByUser(ctx context.Context, userID string) ([]models.Game, error)
	UpdateGame(ctx context.Context, id string, updates map[string]interface{}) (*models.Game, error)

	AppendTransaction(ctx context.Context, entry *models.TokenTransaction) error
	TransactionsByUser(ctx context.Context, userID string) ([]models.TokenTransaction, error)

	// Transact runs fn against a store view scoped to one database
	// transaction, rolling back if fn returns an error.
	Transact(ctx context.Context, fn func(Store) error) error
}

// Updatable column sets for partial updates.
var (
	userColumns = map[string]bool{
		"username":      true,
		"email":         true,
		"phone":         true,
		"password_hash": true,
		"rating":        true,
		"tokens":        true,
		"games_played":  true,
		"wins":          true,
		"losses":        true,
		"draws":         true,
	}

	gameColumns = map[string]bool{
		"black_player_id": true,
		"result":          true,
		"pgn":             true,
		"end_time":        true,
	}

	// Reserved columns are silently dropped rather than rejected so a
	// caller can round-trip an entity through an update payload.
	reservedColumns = map[string]bool{
		"id":         true,
		"created_at": true,
	}
)

// filterColumns drops reserved columns and rejects unknown ones.
func filterColumns(updates map[string]interface{}, allowed map[string]bool) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(updates))
	for col, val := range updates {
		if reservedColumns[col] {
			continue
		}
		if !allowed[col] {
			return nil, ErrUnknownColumn
		}
		out[col] = val
	}
	return out, nil
}
