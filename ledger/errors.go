package ledger

import "fmt"

// Error is a structured error carrying the HTTP status it maps to.
// Handlers serialize Code and Message; HTTP stays server-side.
type Error struct {
	HTTP    int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound error = &Error{
		HTTP:    404,
		Code:    "NotFound",
		Message: "user not found",
	}

	// ErrGameNotFound is returned when a referenced game does not exist.
	ErrGameNotFound error = &Error{
		HTTP:    404,
		Code:    "NotFound",
		Message: "game not found",
	}

	// ErrInsufficientTokens is returned when a stake or ledger debit
	// exceeds the user's balance.
	ErrInsufficientTokens error = &Error{
		HTTP:    400,
		Code:    "InsufficientFunds",
		Message: "not enough tokens to do that",
	}

	// ErrGameFull is returned when joining a game that already has a
	// black player.
	ErrGameFull error = &Error{
		HTTP:    409,
		Code:    "Conflict",
		Message: "game already has a black player",
	}

	// ErrSelfPlay is returned when a user tries to join their own game.
	ErrSelfPlay error = &Error{
		HTTP:    400,
		Code:    "InvalidOperation",
		Message: "cannot play against yourself",
	}

	// ErrGameFinished guards settlement: a terminal game never pays twice.
	ErrGameFinished error = &Error{
		HTTP:    409,
		Code:    "Conflict",
		Message: "game already has a result",
	}

	// ErrInvalidResult is returned for a result outside white/black/draw.
	ErrInvalidResult error = &Error{
		HTTP:    400,
		Code:    "InvalidOperation",
		Message: "result must be white, black or draw",
	}

	// ErrNoOpponent is returned when settling a decisive result on a game
	// nobody joined.
	ErrNoOpponent error = &Error{
		HTTP:    400,
		Code:    "InvalidOperation",
		Message: "game has no black player",
	}

	// ErrUsernameTaken is returned on duplicate registration.
	ErrUsernameTaken error = &Error{
		HTTP:    400,
		Code:    "Conflict",
		Message: "username already taken",
	}

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials error = &Error{
		HTTP:    401,
		Code:    "Unauthorized",
		Message: "invalid credentials",
	}

	// ErrNegativeStake is returned when a game is created with a
	// negative prize.
	ErrNegativeStake error = &Error{
		HTTP:    400,
		Code:    "ValidationError",
		Message: "tokensPrize must not be negative",
	}

	// ErrInvalidTransactionType is returned for a ledger entry type
	// outside win/loss/reward/penalty.
	ErrInvalidTransactionType error = &Error{
		HTTP:    400,
		Code:    "ValidationError",
		Message: "type must be win, loss, reward or penalty",
	}
)
