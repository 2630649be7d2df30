package handlers

import (
	"net/http"

	"echecs/ledger"
	"echecs/models"
	"echecs/relay"
	"echecs/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateGame creates a game for the white player. When the payload
// names a black player both seats and both stakes commit in one
// transaction; a rejected opponent leaves nothing behind.
func CreateGame(c *gin.Context, svc *ledger.Service, logger *zap.Logger) {
	var req models.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var game *models.Game
	var err error
	if req.BlackPlayerID != nil {
		game, err = svc.CreateGameWithOpponent(c.Request.Context(), req.WhitePlayerID, *req.BlackPlayerID, req.TokensPrize)
	} else {
		game, err = svc.CreateGame(c.Request.Context(), req.WhitePlayerID, req.TokensPrize)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

// JoinGame seats the black player on an open game.
func JoinGame(c *gin.Context, svc *ledger.Service, logger *zap.Logger) {
	var req struct {
		BlackPlayerID string `json:"blackPlayerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := svc.JoinGame(c.Request.Context(), c.Param("id"), req.BlackPlayerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// GetGame returns one game. Reads never mutate state.
func GetGame(c *gin.Context, st store.Store, logger *zap.Logger) {
	game, err := st.GameByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, game)
}

// UserGames lists every game the user sat at, newest first.
func UserGames(c *gin.Context, st store.Store, logger *zap.Logger) {
	games, err := st.GamesByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// EndGame settles the game and drops its relay runtime state.
func EndGame(c *gin.Context, svc *ledger.Service, hub *relay.Hub, logger *zap.Logger) {
	var req models.EndGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := svc.EndGame(c.Request.Context(), c.Param("id"), req.Result)
	if err != nil {
		respondError(c, err)
		return
	}

	hub.Drop(game.ID)
	c.JSON(http.StatusOK, game)
}
