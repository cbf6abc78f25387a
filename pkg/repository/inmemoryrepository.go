package repository

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/chess-arbiter/pkg/game"
)

// ErrGameNotFound is returned for unknown game IDs.
var ErrGameNotFound = errors.New("game not found")

// InMemoryGameRepository in an in-memory implementation of GameRepository
type InMemoryGameRepository struct {
	games  map[uuid.UUID]*game.Game
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(logger *zap.Logger) *InMemoryGameRepository {
	return &InMemoryGameRepository{
		games:  make(map[uuid.UUID]*game.Game),
		logger: logger,
	}
}

// SaveGame saves a game to the repository
func (r *InMemoryGameRepository) SaveGame(g *game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[g.ID] = g
	r.logger.Debug("game saved", zap.String("game_id", g.ID.String()), zap.Int("games", len(r.games)))
	return nil
}

// GetGame retrieves a game by ID
func (r *InMemoryGameRepository) GetGame(id uuid.UUID) (*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	return g, nil
}

// DeleteGame removes a game. Deleting an unknown game is not an error.
func (r *InMemoryGameRepository) DeleteGame(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.games, id)
	return nil
}

// ListActiveGames returns all active games
func (r *InMemoryGameRepository) ListActiveGames() ([]*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activeGames []*game.Game
	for _, g := range r.games {
		if g.CurrentStatus() == game.StatusActive {
			activeGames = append(activeGames, g)
		}
	}

	return activeGames, nil
}

// ListGamesByConnection returns every game owned by a connection.
func (r *InMemoryGameRepository) ListGamesByConnection(connectionID uuid.UUID) ([]*game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*game.Game
	for _, g := range r.games {
		if g.ConnectionID == connectionID {
			owned = append(owned, g)
		}
	}

	return owned, nil
}

// CountGames returns the number of stored games.
func (r *InMemoryGameRepository) CountGames() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.games)
}
