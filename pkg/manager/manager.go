package manager

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/chess-arbiter/pkg/events"
	"github.com/tecu23/chess-arbiter/pkg/game"
)

// ErrTooManyGames is returned when the concurrent game limit is reached.
var ErrTooManyGames = errors.New("too many concurrent games")

// GameRepository stores the live game sessions.
type GameRepository interface {
	SaveGame(g *game.Game) error
	GetGame(id uuid.UUID) (*game.Game, error)
	DeleteGame(id uuid.UUID) error
	ListActiveGames() ([]*game.Game, error)
	ListGamesByConnection(connectionID uuid.UUID) ([]*game.Game, error)
	CountGames() int
}

type Manager struct {
	repo      GameRepository
	publisher *events.Publisher
	logger    *zap.Logger
	maxGames  int

	mu sync.Mutex // serializes creation against the limit
}

// NewManager creates a new manager. maxGames <= 0 disables the limit.
func NewManager(
	repo GameRepository,
	publisher *events.Publisher,
	logger *zap.Logger,
	maxGames int,
) *Manager {
	manager := &Manager{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		maxGames:  maxGames,
	}

	// Set up event handlers
	manager.setupEventHandlers()

	return manager
}

// setupEventHandlers sets up event handlers for the game manager
func (m *Manager) setupEventHandlers() {
	// Handle connection closed events
	m.publisher.Subscribe(events.EventConnectionClosed, func(event events.Event) {
		connectionID, err := uuid.Parse(event.ConnectionID)
		if err != nil {
			m.logger.Error("invalid connection id in connection closed event", zap.Error(err))
			return
		}

		// Find all games associated with this connection and terminate them
		m.TerminateGamesByConnection(connectionID)
	})

	// Handle game terminated events
	m.publisher.Subscribe(events.EventGameTerminated, func(event events.Event) {
		if event.GameID == "" {
			return
		}
		gameID, err := uuid.Parse(event.GameID)
		if err != nil {
			m.logger.Error("invalid game id in game terminated event", zap.Error(err))
			return
		}
		m.removeGame(gameID)
	})
}

// CreateGame creates a game owned by connectionID and registers it.
func (m *Manager) CreateGame(params game.CreateGameParams, connectionID uuid.UUID) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxGames > 0 && m.repo.CountGames() >= m.maxGames {
		m.logger.Warn("game limit reached", zap.Int("max_games", m.maxGames))
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyGames, m.maxGames)
	}

	if params.GameID == uuid.Nil {
		params.GameID = uuid.New()
	}

	g, err := game.CreateGame(params, connectionID, m.publisher, m.logger)
	if err != nil {
		return nil, err
	}

	if err := m.repo.SaveGame(g); err != nil {
		return nil, err
	}

	m.logger.Info("created new game", zap.String("game_id", g.ID.String()))

	return g, nil
}

// GetGame returns a game by ID
func (m *Manager) GetGame(id uuid.UUID) (*game.Game, error) {
	return m.repo.GetGame(id)
}

// ActiveGames returns the games that are still being played.
func (m *Manager) ActiveGames() ([]*game.Game, error) {
	return m.repo.ListActiveGames()
}

// EndGame terminates a game and forgets it.
func (m *Manager) EndGame(id uuid.UUID) error {
	g, err := m.repo.GetGame(id)
	if err != nil {
		return err
	}

	g.Terminate()
	m.removeGame(id)
	return nil
}

// TerminateGamesByConnection ends every game owned by a connection.
func (m *Manager) TerminateGamesByConnection(connectionID uuid.UUID) {
	owned, err := m.repo.ListGamesByConnection(connectionID)
	if err != nil {
		m.logger.Error("listing games of connection", zap.Error(err))
		return
	}

	m.logger.Info("terminating games for connection",
		zap.String("connection_id", connectionID.String()),
		zap.Int("games", len(owned)),
	)

	for _, g := range owned {
		g.Terminate()
		m.removeGame(g.ID)
	}
}

// Shutdown terminates every remaining game.
func (m *Manager) Shutdown() {
	active, err := m.repo.ListActiveGames()
	if err != nil {
		m.logger.Error("listing active games", zap.Error(err))
		return
	}
	for _, g := range active {
		g.Terminate()
		m.removeGame(g.ID)
	}
}

// removeGame cleans up a finished game
func (m *Manager) removeGame(id uuid.UUID) {
	if err := m.repo.DeleteGame(id); err != nil {
		m.logger.Error("removing game", zap.String("game_id", id.String()), zap.Error(err))
		return
	}

	m.logger.Debug("removed game", zap.String("game_id", id.String()))
}
