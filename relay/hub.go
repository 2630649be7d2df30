package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"echecs/models"
	"echecs/store"

	"go.uber.org/zap"
)

// Turn markers, matching the board side letters the frontend uses.
const (
	TurnWhite = "w"
	TurnBlack = "b"
)

// Relay failures. These surface only to the offending connection,
// never to the other subscribers.
var (
	ErrGameNotFound = errors.New("game not found")
	ErrNotPlayer    = errors.New("not a player in this game")
	ErrWrongTurn    = errors.New("not your turn")
)

// Snapshot is the game_state event sent to a joining subscriber.
type Snapshot struct {
	Type        string `json:"type"`
	GameID      string `json:"gameId"`
	WhitePlayer string `json:"whitePlayer"`
	BlackPlayer string `json:"blackPlayer,omitempty"`
	PGN         string `json:"pgn"`
	CurrentTurn string `json:"currentTurn"`
}

// MoveMade is the event broadcast to every subscriber after an
// accepted move.
type MoveMade struct {
	Type        string `json:"type"`
	GameID      string `json:"gameId"`
	Move        string `json:"move"`
	CurrentTurn string `json:"currentTurn"`
}

// Subscriber receives relay events. The websocket client implements it
// with a buffered send channel; tests implement it directly.
type Subscriber interface {
	Deliver(msg interface{})
}

// GameState is the per-game runtime state owned by the relay. It lives
// only in this process and is rehydrated from the store on first join;
// the move string is the only part that is persisted back.
type GameState struct {
	mu          sync.Mutex
	gameID      string
	whitePlayer string
	blackPlayer string
	pgn         string
	currentTurn string
	moveSeq     uint64
	lastActive  time.Time
	subscribers map[Subscriber]bool

	// persistMu serializes store writes for this game; persistedSeq is
	// the newest move sequence already written back.
	persistMu    sync.Mutex
	persistedSeq uint64
}

func (g *GameState) snapshot() Snapshot {
	return Snapshot{
		Type:        "game_state",
		GameID:      g.gameID,
		WhitePlayer: g.whitePlayer,
		BlackPlayer: g.blackPlayer,
		PGN:         g.pgn,
		CurrentTurn: g.currentTurn,
	}
}

// Hub brokers alternating move submission between the connected
// participants of each active game. State is process-local; handlers
// for the same game serialize on the per-game mutex.
type Hub struct {
	mu     sync.RWMutex
	games  map[string]*GameState
	store  store.Store
	logger *zap.Logger
}

func NewHub(st store.Store, logger *zap.Logger) *Hub {
	return &Hub{
		games:  make(map[string]*GameState),
		store:  st,
		logger: logger,
	}
}

// Join subscribes sub to the game, lazily rehydrating runtime state
// from the store. The turn is always white's after rehydration; the
// relay does not derive it from the move string.
func (h *Hub) Join(ctx context.Context, gameID, userID string, sub Subscriber) (Snapshot, error) {
	h.mu.RLock()
	state := h.games[gameID]
	h.mu.RUnlock()

	if state == nil {
		stored, err := h.store.GameByID(ctx, gameID)
		if err != nil {
			return Snapshot{}, ErrGameNotFound
		}
		state = h.register(gameID, stored)
	}

	state.mu.Lock()
	needRefresh := state.blackPlayer == ""
	state.mu.Unlock()

	if needRefresh {
		// The black seat may have been filled since this entry was
		// created; re-read so the opponent isn't locked out.
		if stored, err := h.store.GameByID(ctx, gameID); err == nil && stored.BlackPlayerID != nil {
			state.mu.Lock()
			state.blackPlayer = *stored.BlackPlayerID
			state.mu.Unlock()
		}
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	state.subscribers[sub] = true
	state.lastActive = time.Now()
	return state.snapshot(), nil
}

// register installs runtime state for the stored game, or returns the
// entry another goroutine installed first.
func (h *Hub) register(gameID string, stored *models.Game) *GameState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing := h.games[gameID]; existing != nil {
		return existing
	}

	state := &GameState{
		gameID:      gameID,
		whitePlayer: stored.WhitePlayerID,
		pgn:         stored.PGN,
		currentTurn: TurnWhite,
		lastActive:  time.Now(),
		subscribers: make(map[Subscriber]bool),
	}
	if stored.BlackPlayerID != nil {
		state.blackPlayer = *stored.BlackPlayerID
	}
	h.games[gameID] = state
	return state
}

// MakeMove validates sender and turn, appends the move, flips the
// turn, broadcasts move_made to every subscriber and persists the
// updated move string asynchronously.
func (h *Hub) MakeMove(ctx context.Context, gameID, userID, move string) (MoveMade, error) {
	h.mu.RLock()
	state := h.games[gameID]
	h.mu.RUnlock()
	if state == nil {
		return MoveMade{}, ErrGameNotFound
	}

	state.mu.Lock()
	isWhite := state.whitePlayer == userID
	isBlack := state.blackPlayer != "" && state.blackPlayer == userID
	if !isWhite && !isBlack {
		state.mu.Unlock()
		return MoveMade{}, ErrNotPlayer
	}
	if (state.currentTurn == TurnWhite && !isWhite) || (state.currentTurn == TurnBlack && !isBlack) {
		state.mu.Unlock()
		return MoveMade{}, ErrWrongTurn
	}

	if state.pgn == "" {
		state.pgn = move
	} else {
		state.pgn += " " + move
	}
	if state.currentTurn == TurnWhite {
		state.currentTurn = TurnBlack
	} else {
		state.currentTurn = TurnWhite
	}
	state.lastActive = time.Now()
	state.moveSeq++
	seq := state.moveSeq

	msg := MoveMade{
		Type:        "move_made",
		GameID:      gameID,
		Move:        move,
		CurrentTurn: state.currentTurn,
	}
	pgn := state.pgn
	subs := make([]Subscriber, 0, len(state.subscribers))
	for sub := range state.subscribers {
		subs = append(subs, sub)
	}
	state.mu.Unlock()

	for _, sub := range subs {
		sub.Deliver(msg)
	}

	go h.persist(state, seq, pgn)

	return msg, nil
}

// persist writes the move string back to the store. Writes for one game
// are serialized on persistMu and stamped with the move sequence, so a
// snapshot that lost the race to a newer one is skipped instead of
// overwriting it.
func (h *Hub) persist(state *GameState, seq uint64, pgn string) {
	state.persistMu.Lock()
	defer state.persistMu.Unlock()
	if seq <= state.persistedSeq {
		return
	}
	if _, err := h.store.UpdateGame(context.Background(), state.gameID, map[string]interface{}{"pgn": pgn}); err != nil {
		h.logger.Error("failed to persist move string",
			zap.String("gameID", state.gameID),
			zap.Error(err),
		)
		return
	}
	state.persistedSeq = seq
}

// Unsubscribe removes sub from the game, if it is still tracked.
func (h *Hub) Unsubscribe(gameID string, sub Subscriber) {
	h.mu.RLock()
	state := h.games[gameID]
	h.mu.RUnlock()
	if state == nil {
		return
	}
	state.mu.Lock()
	delete(state.subscribers, sub)
	state.mu.Unlock()
}

// Drop evicts the game's runtime state. Called when the game settles.
func (h *Hub) Drop(gameID string) {
	h.mu.Lock()
	delete(h.games, gameID)
	h.mu.Unlock()
}

// EvictIdle removes entries that saw no join or move for longer than
// maxIdle and reports how many were dropped. Run from the cron sweep.
func (h *Hub) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	evicted := 0

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, state := range h.games {
		state.mu.Lock()
		idle := state.lastActive.Before(cutoff)
		state.mu.Unlock()
		if idle {
			delete(h.games, id)
			evicted++
		}
	}
	return evicted
}

// ActiveGames reports the number of tracked runtime entries.
func (h *Hub) ActiveGames() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games)
}
