package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"echecs/models"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local development.
// It honors the same contract as Gorm, including the lock-step balance
// guard. Transact serializes on the store lock; unlike the database
// implementation it does not roll back partial writes, so test
// assertions should treat a failed Transact as fatal.
type Memory struct {
	mu      sync.Mutex
	users   map[string]models.User
	games   map[string]models.Game
	entries []models.TokenTransaction
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]models.User),
		games: make(map[string]models.Game),
	}
}

func (s *Memory) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUser(user)
}

func (s *Memory) createUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *Memory) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userByID(id)
}

func (s *Memory) userByID(id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *Memory) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateUser(id, updates)
}

func (s *Memory) updateUser(id string, updates map[string]interface{}) (*models.User, error) {
	cols, err := filterColumns(updates, userColumns)
	if err != nil {
		return nil, err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	for col, val := range cols {
		switch col {
		case "username":
			user.Username = val.(string)
		case "email":
			user.Email = val.(string)
		case "phone":
			user.Phone = val.(string)
		case "password_hash":
			user.PasswordHash = val.(string)
		case "rating":
			user.Rating = toInt(val)
		case "tokens":
			user.Tokens = toInt(val)
		case "games_played":
			user.GamesPlayed = toInt(val)
		case "wins":
			user.Wins = toInt(val)
		case "losses":
			user.Losses = toInt(val)
		case "draws":
			user.Draws = toInt(val)
		}
	}
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return &user, nil
}

func (s *Memory) CreateGame(ctx context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createGame(game)
}

func (s *Memory) createGame(game *models.Game) error {
	if game.ID == "" {
		game.ID = uuid.NewString()
	}
	s.games[game.ID] = *game
	return nil
}

func (s *Memory) GameByID(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameByID(id)
}

func (s *Memory) gameByID(id string) (*models.Game, error) {
	game, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &game, nil
}

func (s *Memory) GamesByUser(ctx context.Context, userID string) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	games := []models.Game{}
	for _, g := range s.games {
		if g.WhitePlayerID == userID || (g.BlackPlayerID != nil && *g.BlackPlayerID == userID) {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].StartTime.After(games[j].StartTime)
	})
	return games, nil
}

func (s *Memory) UpdateGame(ctx context.Context, id string, updates map[string]interface{}) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateGame(id, updates)
}

func (s *Memory) updateGame(id string, updates map[string]interface{}) (*models.Game, error) {
	cols, err := filterColumns(updates, gameColumns)
	if err != nil {
		return nil, err
	}
	game, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	for col, val := range cols {
		switch col {
		case "black_player_id":
			v := val.(string)
			game.BlackPlayerID = &v
		case "result":
			v := val.(string)
			game.Result = &v
		case "pgn":
			game.PGN = val.(string)
		case "end_time":
			v := val.(time.Time)
			game.EndTime = &v
		}
	}
	s.games[id] = game
	return &game, nil
}

func (s *Memory) AppendTransaction(ctx context.Context, entry *models.TokenTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendTransaction(entry)
}

func (s *Memory) appendTransaction(entry *models.TokenTransaction) error {
	user, ok := s.users[entry.UserID]
	if !ok {
		return ErrNotFound
	}
	if user.Tokens+entry.Amount < 0 {
		return ErrInsufficientTokens
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	user.Tokens += entry.Amount
	s.users[entry.UserID] = user
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *Memory) TransactionsByUser(ctx context.Context, userID string) ([]models.TokenTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []models.TokenTransaction{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].UserID == userID {
			entries = append(entries, s.entries[i])
		}
	}
	return entries, nil
}

func (s *Memory) Transact(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTx{s})
}

// memoryTx is the view handed to Transact callbacks: same data, lock
// already held.
type memoryTx struct {
	m *Memory
}

func (t *memoryTx) CreateUser(ctx context.Context, user *models.User) error {
	return t.m.createUser(user)
}

func (t *memoryTx) UserByID(ctx context.Context, id string) (*models.User, error) {
	return t.m.userByID(id)
}

func (t *memoryTx) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range t.m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memoryTx) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	return t.m.updateUser(id, updates)
}

func (t *memoryTx) CreateGame(ctx context.Context, game *models.Game) error {
	return t.m.createGame(game)
}

func (t *memoryTx) GameByID(ctx context.Context, id string) (*models.Game, error) {
	return t.m.gameByID(id)
}

func (t *memoryTx) GamesByUser(ctx context.Context, userID string) ([]models.Game, error) {
	games := []models.Game{}
	for _, g := range t.m.games {
		if g.WhitePlayerID == userID || (g.BlackPlayerID != nil && *g.BlackPlayerID == userID) {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].StartTime.After(games[j].StartTime)
	})
	return games, nil
}

func (t *memoryTx) UpdateGame(ctx context.Context, id string, updates map[string]interface{}) (*models.Game, error) {
	return t.m.updateGame(id, updates)
}

func (t *memoryTx) AppendTransaction(ctx context.Context, entry *models.TokenTransaction) error {
	return t.m.appendTransaction(entry)
}

func (t *memoryTx) TransactionsByUser(ctx context.Context, userID string) ([]models.TokenTransaction, error) {
	entries := []models.TokenTransaction{}
	for i := len(t.m.entries) - 1; i >= 0; i-- {
		if t.m.entries[i].UserID == userID {
			entries = append(entries, t.m.entries[i])
		}
	}
	return entries, nil
}

func (t *memoryTx) Transact(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
