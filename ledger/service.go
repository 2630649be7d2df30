package ledger

import (
	"context"
	"errors"
	"time"

	"echecs/models"
	"echecs/store"

	"go.uber.org/zap"
)

// Fixed payout rules.
const (
	DailyBonus = 10

	stakeDescription  = "Token stake for game"
	refundDescription = "Returned stake from drawn game"
	prizeDescription  = "Won game prize"
	bonusDescription  = "Daily login bonus"
)

const ratingFloor = 100

// Service is the game lifecycle service: stake custody and result
// settlement for two-player wagered games. Every operation that writes
// more than once runs inside a single store transaction, so a crash
// can never leave a game row without its escrow entry.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

func NewService(st store.Store, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// CreateGame inserts a game for the white player and escrows their
// stake when the game carries a prize.
func (s *Service) CreateGame(ctx context.Context, whitePlayerID string, tokensPrize int) (*models.Game, error) {
	if tokensPrize < 0 {
		return nil, ErrNegativeStake
	}

	var game *models.Game
	err := s.store.Transact(ctx, func(tx store.Store) error {
		user, err := tx.UserByID(ctx, whitePlayerID)
		if err != nil {
			return userErr(err)
		}
		if user.Tokens < tokensPrize {
			return ErrInsufficientTokens
		}

		game = &models.Game{
			WhitePlayerID: whitePlayerID,
			PGN:           "",
			StartTime:     time.Now(),
			TokensPrize:   tokensPrize,
		}
		if err := tx.CreateGame(ctx, game); err != nil {
			return err
		}

		if tokensPrize > 0 {
			return s.stake(ctx, tx, whitePlayerID, game.ID, tokensPrize)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game created",
		zap.String("gameID", game.ID),
		zap.String("whitePlayerID", whitePlayerID),
		zap.Int("tokensPrize", tokensPrize),
	)
	return game, nil
}

// JoinGame assigns the black player, escrowing a matching stake on
// wagered games. Self-play and double joins are rejected.
func (s *Service) JoinGame(ctx context.Context, gameID, blackPlayerID string) (*models.Game, error) {
	var game *models.Game
	err := s.store.Transact(ctx, func(tx store.Store) error {
		g, err := tx.GameByID(ctx, gameID)
		if err != nil {
			return gameErr(err)
		}
		if g.Finished() {
			return ErrGameFinished
		}
		if g.BlackPlayerID != nil {
			return ErrGameFull
		}
		if g.WhitePlayerID == blackPlayerID {
			return ErrSelfPlay
		}

		user, err := tx.UserByID(ctx, blackPlayerID)
		if err != nil {
			return userErr(err)
		}
		if g.TokensPrize > 0 {
			if user.Tokens < g.TokensPrize {
				return ErrInsufficientTokens
			}
			if err := s.stake(ctx, tx, blackPlayerID, gameID, g.TokensPrize); err != nil {
				return err
			}
		}

		game, err = tx.UpdateGame(ctx, gameID, map[string]interface{}{
			"black_player_id": blackPlayerID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game joined",
		zap.String("gameID", gameID),
		zap.String("blackPlayerID", blackPlayerID),
	)
	return game, nil
}

// CreateGameWithOpponent creates the game and seats the black player in
// one transaction scope. Both balances are checked before anything is
// written, so a rejected opponent never leaves an orphaned game row or
// a locked stake behind.
func (s *Service) CreateGameWithOpponent(ctx context.Context, whitePlayerID, blackPlayerID string, tokensPrize int) (*models.Game, error) {
	if tokensPrize < 0 {
		return nil, ErrNegativeStake
	}
	if whitePlayerID == blackPlayerID {
		return nil, ErrSelfPlay
	}

	var game *models.Game
	err := s.store.Transact(ctx, func(tx store.Store) error {
		for _, id := range []string{whitePlayerID, blackPlayerID} {
			user, err := tx.UserByID(ctx, id)
			if err != nil {
				return userErr(err)
			}
			if user.Tokens < tokensPrize {
				return ErrInsufficientTokens
			}
		}

		game = &models.Game{
			WhitePlayerID: whitePlayerID,
			BlackPlayerID: &blackPlayerID,
			PGN:           "",
			StartTime:     time.Now(),
			TokensPrize:   tokensPrize,
		}
		if err := tx.CreateGame(ctx, game); err != nil {
			return err
		}

		if tokensPrize > 0 {
			if err := s.stake(ctx, tx, whitePlayerID, game.ID, tokensPrize); err != nil {
				return err
			}
			return s.stake(ctx, tx, blackPlayerID, game.ID, tokensPrize)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game created",
		zap.String("gameID", game.ID),
		zap.String("whitePlayerID", whitePlayerID),
		zap.String("blackPlayerID", blackPlayerID),
		zap.Int("tokensPrize", tokensPrize),
	)
	return game, nil
}

// EndGame records the result, settles the prize and applies stat and
// rating updates, all in one transaction. A game that already has a
// result is terminal; calling EndGame on it again never re-pays.
func (s *Service) EndGame(ctx context.Context, gameID, result string) (*models.Game, error) {
	if !models.ValidResult(result) {
		return nil, ErrInvalidResult
	}

	var game *models.Game
	err := s.store.Transact(ctx, func(tx store.Store) error {
		g, err := tx.GameByID(ctx, gameID)
		if err != nil {
			return gameErr(err)
		}
		if g.Finished() {
			return ErrGameFinished
		}
		if result != models.ResultDraw && g.BlackPlayerID == nil {
			return ErrNoOpponent
		}

		game, err = tx.UpdateGame(ctx, gameID, map[string]interface{}{
			"result":   result,
			"end_time": time.Now(),
		})
		if err != nil {
			return err
		}

		if g.TokensPrize > 0 {
			if err := s.settle(ctx, tx, g, result); err != nil {
				return err
			}
		}
		return s.applyStats(ctx, tx, g, result)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game ended",
		zap.String("gameID", gameID),
		zap.String("result", result),
	)
	return game, nil
}

// settle distributes the prize: a draw returns each stake as a reward,
// a decisive result pays double the prize to the winner. The loser
// gets no ledger entry; their stake already left at escrow time.
func (s *Service) settle(ctx context.Context, tx store.Store, game *models.Game, result string) error {
	if result == models.ResultDraw {
		if err := s.credit(ctx, tx, game.WhitePlayerID, game.ID, game.TokensPrize, models.TransactionReward, refundDescription); err != nil {
			return err
		}
		if game.BlackPlayerID != nil {
			return s.credit(ctx, tx, *game.BlackPlayerID, game.ID, game.TokensPrize, models.TransactionReward, refundDescription)
		}
		return nil
	}

	winnerID := game.WhitePlayerID
	if result == models.ResultBlack {
		winnerID = *game.BlackPlayerID
	}
	return s.credit(ctx, tx, winnerID, game.ID, 2*game.TokensPrize, models.TransactionWin, prizeDescription)
}

// applyStats bumps counters and rating for everyone seated at the game.
func (s *Service) applyStats(ctx context.Context, tx store.Store, game *models.Game, result string) error {
	var whiteOutcome, blackOutcome string
	switch result {
	case models.ResultWhite:
		whiteOutcome, blackOutcome = outcomeWin, outcomeLoss
	case models.ResultBlack:
		whiteOutcome, blackOutcome = outcomeLoss, outcomeWin
	case models.ResultDraw:
		whiteOutcome, blackOutcome = outcomeDraw, outcomeDraw
	}

	if err := s.updateStats(ctx, tx, game.WhitePlayerID, whiteOutcome); err != nil {
		return err
	}
	if game.BlackPlayerID != nil {
		return s.updateStats(ctx, tx, *game.BlackPlayerID, blackOutcome)
	}
	return nil
}

const (
	outcomeWin  = "win"
	outcomeLoss = "loss"
	outcomeDraw = "draw"
)

func (s *Service) updateStats(ctx context.Context, tx store.Store, userID, outcome string) error {
	user, err := tx.UserByID(ctx, userID)
	if err != nil {
		return userErr(err)
	}

	updates := map[string]interface{}{
		"games_played": user.GamesPlayed + 1,
	}
	switch outcome {
	case outcomeWin:
		updates["wins"] = user.Wins + 1
		updates["rating"] = user.Rating + 15
	case outcomeLoss:
		updates["losses"] = user.Losses + 1
		rating := user.Rating - 15
		if rating < ratingFloor {
			rating = ratingFloor
		}
		updates["rating"] = rating
	case outcomeDraw:
		updates["draws"] = user.Draws + 1
		updates["rating"] = user.Rating + 5
	}

	_, err = tx.UpdateUser(ctx, userID, updates)
	return err
}

// CreateTransaction appends a caller-supplied ledger entry. The store
// applies the amount to the cached balance and rejects overdrafts.
func (s *Service) CreateTransaction(ctx context.Context, userID string, amount int, txType, description string, gameID *string) (*models.TokenTransaction, error) {
	if !models.ValidTransactionType(txType) {
		return nil, ErrInvalidTransactionType
	}

	entry := &models.TokenTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		GameID:      gameID,
	}
	if err := s.store.AppendTransaction(ctx, entry); err != nil {
		return nil, appendErr(err)
	}
	return entry, nil
}

// Transactions lists the user's ledger, newest first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]models.TokenTransaction, error) {
	return s.store.TransactionsByUser(ctx, userID)
}

// Balance returns the cached token balance.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return 0, userErr(err)
	}
	return user.Tokens, nil
}

// AwardDailyBonus credits the login bonus at most once per UTC day.
// Check and append share one transaction scope, so two concurrent
// logins cannot both pass the once-per-day check. Returns whether a
// bonus was actually granted.
func (s *Service) AwardDailyBonus(ctx context.Context, userID string) (bool, error) {
	awarded := false
	err := s.store.Transact(ctx, func(tx store.Store) error {
		entries, err := tx.TransactionsByUser(ctx, userID)
		if err != nil {
			return err
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		for _, e := range entries {
			if e.Type == models.TransactionReward && e.Description == bonusDescription {
				if !e.CreatedAt.UTC().Truncate(24 * time.Hour).Before(today) {
					return nil
				}
				break // entries are newest first
			}
		}

		entry := &models.TokenTransaction{
			UserID:      userID,
			Amount:      DailyBonus,
			Type:        models.TransactionReward,
			Description: bonusDescription,
		}
		if err := tx.AppendTransaction(ctx, entry); err != nil {
			return appendErr(err)
		}
		awarded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return awarded, nil
}

func (s *Service) stake(ctx context.Context, tx store.Store, userID, gameID string, prize int) error {
	return appendErr(tx.AppendTransaction(ctx, &models.TokenTransaction{
		UserID:      userID,
		Amount:      -prize,
		Type:        models.TransactionPenalty,
		Description: stakeDescription,
		GameID:      &gameID,
	}))
}

func (s *Service) credit(ctx context.Context, tx store.Store, userID, gameID string, amount int, txType, description string) error {
	return appendErr(tx.AppendTransaction(ctx, &models.TokenTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		GameID:      &gameID,
	}))
}

func userErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func gameErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrGameNotFound
	}
	return err
}

func appendErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrInsufficientTokens):
		return ErrInsufficientTokens
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	}
	return err
}
