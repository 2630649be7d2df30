package models

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the signed token plus the public profile.
type AuthResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// CreateGameRequest is the payload for POST /api/games. The optional
// black player joins through the lifecycle service so both stakes are
// escrowed consistently.
type CreateGameRequest struct {
	WhitePlayerID string  `json:"whitePlayerId" binding:"required"`
	BlackPlayerID *string `json:"blackPlayerId"`
	TokensPrize   int     `json:"tokensPrize" binding:"min=0"`
}

// EndGameRequest is the payload for POST /api/games/:id/end.
type EndGameRequest struct {
	Result string `json:"result" binding:"required"`
}

// CreateTransactionRequest is the payload for POST /api/tokens/transactions.
// The user is taken from the bearer token, never from the body.
type CreateTransactionRequest struct {
	Amount      int     `json:"amount" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	Description string  `json:"description" binding:"required"`
	GameID      *string `json:"gameId"`
}

// CreateUserRequest is the payload for POST /api/users. Unlike register
// it takes a precomputed hash; no token is issued.
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=30"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	PasswordHash string `json:"passwordHash" binding:"required"`
}

// UpdateUserRequest is the sparse payload for PATCH /api/users/:id.
// Nil fields are left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=30"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	Rating   *int    `json:"rating"`
	Tokens   *int    `json:"tokens"`
}
