package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"echecs/auth"
	"echecs/ledger"
	"echecs/middlewares"
	"echecs/models"
	"echecs/relay"
	"echecs/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	router *gin.Engine
	store  *store.Memory
	svc    *ledger.Service
	hub    *relay.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	st := store.NewMemory()
	svc := ledger.NewService(st, logger)
	hub := relay.NewHub(st, logger)

	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/auth/register", func(c *gin.Context) { Register(c, st, logger) })
	api.POST("/auth/login", func(c *gin.Context) { Login(c, st, svc, logger) })
	api.POST("/users", func(c *gin.Context) { CreateUser(c, st, logger) })
	api.GET("/users/:id", func(c *gin.Context) { GetUser(c, st, logger) })
	api.PATCH("/users/:id", func(c *gin.Context) { UpdateUser(c, st, logger) })
	api.POST("/games", func(c *gin.Context) { CreateGame(c, svc, logger) })
	api.GET("/games/:id", func(c *gin.Context) { GetGame(c, st, logger) })
	api.GET("/games/user/:userId", func(c *gin.Context) { UserGames(c, st, logger) })
	api.POST("/games/:id/join", func(c *gin.Context) { JoinGame(c, svc, logger) })
	api.POST("/games/:id/end", func(c *gin.Context) { EndGame(c, svc, hub, logger) })

	tokens := api.Group("/tokens", middlewares.AuthMiddleware(logger))
	tokens.POST("/transactions", func(c *gin.Context) { CreateTransaction(c, svc, logger) })
	tokens.GET("/transactions", func(c *gin.Context) { ListTransactions(c, svc, logger) })
	tokens.GET("/balance", func(c *gin.Context) { Balance(c, svc, logger) })

	return &fixture{router: router, store: st, svc: svc, hub: hub}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) register(t *testing.T, username string) (string, models.PublicUser) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"phone":    "555-0100",
		"password": "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	token, user := f.register(t, "alice")
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 1200, user.Rating)
	assert.Equal(t, 100, user.Tokens)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	w := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"phone":    "555-0100",
		"password": "hunter2hunter2",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "al", // too short
		"email":    "not-an-email",
		"phone":    "555-0100",
		"password": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	w := f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice",
		"password": "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// First login of the day credits the bonus.
	assert.Equal(t, 100+ledger.DailyBonus, resp.User.Tokens)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	w := f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice",
		"password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": "nobody",
		"password": "whatever",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")
	_, bob := f.register(t, "bob")

	w := f.do(t, http.MethodPost, "/api/games", gin.H{
		"whitePlayerId": alice.ID,
		"tokensPrize":   20,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var game models.Game
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &game))

	w = f.do(t, http.MethodPost, "/api/games/"+game.ID+"/join", gin.H{
		"blackPlayerId": bob.ID,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Reads are idempotent.
	for i := 0; i < 2; i++ {
		w = f.do(t, http.MethodGet, "/api/games/"+game.ID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/games/"+game.ID+"/end", gin.H{
		"result": "white",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Settlement is terminal; a second end must not re-pay.
	w = f.do(t, http.MethodPost, "/api/games/"+game.ID+"/end", gin.H{
		"result": "white",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	user, err := f.store.UserByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, user.Tokens)
}

func TestCreateGameWithSeatedBlackPlayer(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")
	_, bob := f.register(t, "bob")

	w := f.do(t, http.MethodPost, "/api/games", gin.H{
		"whitePlayerId": alice.ID,
		"blackPlayerId": bob.ID,
		"tokensPrize":   20,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var game models.Game
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &game))
	require.NotNil(t, game.BlackPlayerID)
	assert.Equal(t, bob.ID, *game.BlackPlayerID)

	// Both stakes escrowed.
	for _, id := range []string{alice.ID, bob.ID} {
		user, err := f.store.UserByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 80, user.Tokens)
	}
}

func TestCreateGameWithPoorOpponentLocksNoStake(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")
	_, bob := f.register(t, "bob")

	_, err := f.store.UpdateUser(context.Background(), bob.ID, map[string]interface{}{"tokens": 5})
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/games", gin.H{
		"whitePlayerId": alice.ID,
		"blackPlayerId": bob.ID,
		"tokensPrize":   20,
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The rejected opponent must not leave the creator's escrow behind.
	user, err := f.store.UserByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, user.Tokens)
	games, err := f.store.GamesByUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestCreateGameInsufficientStake(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")

	w := f.do(t, http.MethodPost, "/api/games", gin.H{
		"whitePlayerId": alice.ID,
		"tokensPrize":   1000,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGameNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/games/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserGames(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/api/games", gin.H{"whitePlayerId": alice.ID}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/games/user/"+alice.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var games []models.Game
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &games))
	assert.Len(t, games, 2)
}

func TestTokenEndpointsRequireAuth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/tokens/balance", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/tokens/balance", nil, map[string]string{
		"Authorization": "Bearer bogus",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenBalanceAndTransactions(t *testing.T) {
	f := newFixture(t)
	token, _ := f.register(t, "alice")
	authHeader := map[string]string{"Authorization": "Bearer " + token}

	w := f.do(t, http.MethodGet, "/api/tokens/balance", nil, authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":100}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/tokens/transactions", gin.H{
		"amount":      -25,
		"type":        "penalty",
		"description": "entry fee",
	}, authHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/tokens/balance", nil, authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":75}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/tokens/transactions", nil, authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.TokenTransaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, -25, entries[0].Amount)
}

func TestTokenTransactionOverdraft(t *testing.T) {
	f := newFixture(t)
	token, _ := f.register(t, "alice")

	w := f.do(t, http.MethodPost, "/api/tokens/transactions", gin.H{
		"amount":      -5000,
		"type":        "penalty",
		"description": "too big",
	}, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserSparse(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")

	w := f.do(t, http.MethodPatch, "/api/users/"+alice.ID, gin.H{"rating": 1350}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, 1350, user.Rating)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 100, user.Tokens)
}

func TestUpdateUserNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPatch, "/api/users/missing", gin.H{"rating": 1350}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorPayloadShape(t *testing.T) {
	f := newFixture(t)
	_, alice := f.register(t, "alice")

	w := f.do(t, http.MethodPost, "/api/games", gin.H{
		"whitePlayerId": alice.ID,
		"tokensPrize":   1000,
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "InsufficientFunds", payload["code"])
	assert.NotEmpty(t, payload["error"])
}
