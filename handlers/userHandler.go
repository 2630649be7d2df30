package handlers

import (
	"net/http"

	"echecs/models"
	"echecs/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateUser inserts a user row directly, taking a precomputed hash.
// Registration is the normal path; this exists for administrative
// seeding.
func CreateUser(c *gin.Context, st store.Store, logger *zap.Logger) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: req.PasswordHash,
		Rating:       initialRating,
		Tokens:       initialTokens,
	}
	if err := st.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser returns one user.
func GetUser(c *gin.Context, st store.Store, logger *zap.Logger) {
	user, err := st.UserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser applies a sparse update; absent fields stay untouched.
func UpdateUser(c *gin.Context, st store.Store, logger *zap.Logger) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Tokens != nil {
		updates["tokens"] = *req.Tokens
	}

	user, err := st.UpdateUser(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
