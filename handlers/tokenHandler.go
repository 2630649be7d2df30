package handlers

import (
	"net/http"

	"echecs/ledger"
	"echecs/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateTransaction appends a ledger entry for the authenticated user.
// The user is always the bearer of the token, never taken from the
// body.
func CreateTransaction(c *gin.Context, svc *ledger.Service, logger *zap.Logger) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := svc.CreateTransaction(c.Request.Context(), userIDFromContext(c), req.Amount, req.Type, req.Description, req.GameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListTransactions returns the authenticated user's ledger, newest
// first.
func ListTransactions(c *gin.Context, svc *ledger.Service, logger *zap.Logger) {
	entries, err := svc.Transactions(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Balance returns the authenticated user's cached token balance.
func Balance(c *gin.Context, svc *ledger.Service, logger *zap.Logger) {
	balance, err := svc.Balance(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
