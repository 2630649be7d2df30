package handlers

import (
	"net/http"

	"echecs/auth"
	"echecs/ledger"
	"echecs/middlewares"
	"echecs/models"
	"echecs/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Registration defaults for a fresh account.
const (
	initialRating = 1200
	initialTokens = 100
)

// Register creates an account and returns a signed token with the
// public profile.
func Register(c *gin.Context, st store.Store, logger *zap.Logger) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := st.UserByUsername(c.Request.Context(), req.Username); err == nil {
		respondError(c, ledger.ErrUsernameTaken)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", zap.Error(err))
		respondError(c, err)
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Rating:       initialRating,
		Tokens:       initialTokens,
	}
	if err := st.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		logger.Error("failed to sign token", zap.Error(err))
		respondError(c, err)
		return
	}

	logger.Info("user registered", zap.String("userID", user.ID), zap.String("username", user.Username))
	c.JSON(http.StatusCreated, models.AuthResponse{Token: token, User: user.Public()})
}

// Login authenticates by username and password. A successful login
// also triggers the once-per-day token bonus.
func Login(c *gin.Context, st store.Store, svc *ledger.Service, logger *zap.Logger) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := st.UserByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, ledger.ErrInvalidCredentials)
		return
	}

	if awarded, err := svc.AwardDailyBonus(c.Request.Context(), user.ID); err != nil {
		logger.Error("failed to award daily bonus", zap.String("userID", user.ID), zap.Error(err))
	} else if awarded {
		// Re-read so the response reflects the credited balance.
		if fresh, err := st.UserByID(c.Request.Context(), user.ID); err == nil {
			user = fresh
		}
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		logger.Error("failed to sign token", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user.Public()})
}

// userIDFromContext pulls the authenticated user set by the auth
// middleware.
func userIDFromContext(c *gin.Context) string {
	return middlewares.UserID(c)
}
