package store

import (
	"context"
	"testing"
	"time"

	"echecs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterColumnsDropsReserved(t *testing.T) {
	cols, err := filterColumns(map[string]interface{}{
		"id":         "should-vanish",
		"created_at": time.Now(),
		"rating":     1300,
	}, userColumns)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"rating": 1300}, cols)
}

func TestFilterColumnsRejectsUnknown(t *testing.T) {
	_, err := filterColumns(map[string]interface{}{"is_admin": true}, userColumns)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func newUser(username string, tokens int) *models.User {
	return &models.User{
		Username: username,
		Email:    username + "@example.com",
		Phone:    "555-0100",
		Tokens:   tokens,
		Rating:   1200,
	}
}

func TestMemoryUserCRUD(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	user := newUser("alice", 100)
	require.NoError(t, st.CreateUser(ctx, user))
	require.NotEmpty(t, user.ID)

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = st.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.CreateUser(ctx, newUser("alice", 0))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryPartialUpdateLeavesOtherColumns(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	user := newUser("alice", 100)
	require.NoError(t, st.CreateUser(ctx, user))

	updated, err := st.UpdateUser(ctx, user.ID, map[string]interface{}{"rating": 1400})
	require.NoError(t, err)
	assert.Equal(t, 1400, updated.Rating)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, 100, updated.Tokens)

	// Reserved attributes are ignored, not applied.
	updated, err = st.UpdateUser(ctx, user.ID, map[string]interface{}{"id": "hijacked", "tokens": 55})
	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, 55, updated.Tokens)
}

func TestMemoryAppendTransactionLockStep(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	user := newUser("alice", 100)
	require.NoError(t, st.CreateUser(ctx, user))

	entry := &models.TokenTransaction{
		UserID:      user.ID,
		Amount:      -30,
		Type:        models.TransactionPenalty,
		Description: "stake",
	}
	require.NoError(t, st.AppendTransaction(ctx, entry))
	require.NotEmpty(t, entry.ID)

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Tokens)

	entries, err := st.TransactionsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, -30, entries[0].Amount)
}

func TestMemoryAppendTransactionGuardsOverdraft(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	user := newUser("alice", 20)
	require.NoError(t, st.CreateUser(ctx, user))

	err := st.AppendTransaction(ctx, &models.TokenTransaction{
		UserID: user.ID,
		Amount: -21,
		Type:   models.TransactionPenalty,
	})
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Tokens)

	entries, err := st.TransactionsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryGamesByUser(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	alice := newUser("alice", 100)
	bob := newUser("bob", 100)
	require.NoError(t, st.CreateUser(ctx, alice))
	require.NoError(t, st.CreateUser(ctx, bob))

	asWhite := &models.Game{WhitePlayerID: alice.ID, StartTime: time.Now().Add(-time.Hour)}
	require.NoError(t, st.CreateGame(ctx, asWhite))
	asBlack := &models.Game{WhitePlayerID: bob.ID, BlackPlayerID: &alice.ID, StartTime: time.Now()}
	require.NoError(t, st.CreateGame(ctx, asBlack))

	games, err := st.GamesByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, games, 2)
	// Newest first.
	assert.Equal(t, asBlack.ID, games[0].ID)
}

func TestMemoryTransactScope(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	user := newUser("alice", 100)
	require.NoError(t, st.CreateUser(ctx, user))

	err := st.Transact(ctx, func(tx Store) error {
		game := &models.Game{WhitePlayerID: user.ID, StartTime: time.Now()}
		if err := tx.CreateGame(ctx, game); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, &models.TokenTransaction{
			UserID: user.ID,
			Amount: -10,
			Type:   models.TransactionPenalty,
			GameID: &game.ID,
		})
	})
	require.NoError(t, err)

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Tokens)
}
