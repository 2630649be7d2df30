package handlers

import (
	"errors"
	"net/http"

	"echecs/ledger"
	"echecs/store"

	"github.com/gin-gonic/gin"
)

// respondError maps service and store failures onto the HTTP error
// contract: a short JSON message with a 4xx/5xx status.
func respondError(c *gin.Context, err error) {
	var apiErr *ledger.Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.HTTP, gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Duplicate record"})
	case errors.Is(err, store.ErrUnknownColumn):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown attribute in update"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
