package store

import (
	"context"
	"errors"
	"strings"

	"echecs/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gorm is the postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapGormError(err)
	}
	return nil
}

func (s *Gorm) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapGormError(err)
	}
	return &user, nil
}

func (s *Gorm) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapGormError(err)
	}
	return &user, nil
}

func (s *Gorm) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	cols, err := filterColumns(updates, userColumns)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, wrapGormError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.UserByID(ctx, id)
}

func (s *Gorm) CreateGame(ctx context.Context, game *models.Game) error {
	if game.ID == "" {
		game.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(game).Error; err != nil {
		return wrapGormError(err)
	}
	return nil
}

func (s *Gorm) GameByID(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, wrapGormError(err)
	}
	return &game, nil
}

func (s *Gorm) GamesByUser(ctx context.Context, userID string) ([]models.Game, error) {
	games := []models.Game{}
	err := s.db.WithContext(ctx).
		Where("white_player_id = ? OR black_player_id = ?", userID, userID).
		Order("start_time DESC").
		Find(&games).Error
	if err != nil {
		return nil, wrapGormError(err)
	}
	return games, nil
}

func (s *Gorm) UpdateGame(ctx context.Context, id string, updates map[string]interface{}) (*models.Game, error) {
	cols, err := filterColumns(updates, gameColumns)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, wrapGormError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GameByID(ctx, id)
}

// AppendTransaction inserts the ledger row and applies its amount to
// the cached balance in one database transaction. The balance update
// is guarded so no committed entry can take tokens below zero.
func (s *Gorm) AppendTransaction(ctx context.Context, entry *models.TokenTransaction) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND tokens + ? >= 0", entry.UserID, entry.Amount).
			Update("tokens", gorm.Expr("tokens + ?", entry.Amount))
		if res.Error != nil {
			return wrapGormError(res.Error)
		}
		if res.RowsAffected == 0 {
			// Missing user and insufficient balance both leave zero rows;
			// tell them apart for the caller.
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", entry.UserID).Count(&count).Error; err != nil {
				return wrapGormError(err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrInsufficientTokens
		}
		if err := tx.Create(entry).Error; err != nil {
			return wrapGormError(err)
		}
		return nil
	})
}

func (s *Gorm) TransactionsByUser(ctx context.Context, userID string) ([]models.TokenTransaction, error) {
	entries := []models.TokenTransaction{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, wrapGormError(err)
	}
	return entries, nil
}

func (s *Gorm) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func wrapGormError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case strings.Contains(err.Error(), "duplicate key"):
		// pgx surfaces unique violations without the gorm sentinel
		// unless translation is enabled.
		return ErrDuplicate
	}
	return err
}
