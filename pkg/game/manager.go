package game

import (
	"errors"
	"sync"

	"github.com/zuraxy/lsnp-node/pkg/crypto"
)

var ErrUnknownGame = errors.New("unknown game")

// Manager tracks the sessions this node is playing, keyed by game ID.
// All accessors return value copies; the live state never leaves the
// lock.
type Manager struct {
	mu    sync.Mutex
	games map[string]*Game
}

func NewManager() *Manager {
	return &Manager{games: make(map[string]*Game)}
}

// Invite opens a local game against opponent. The inviter plays X
// and therefore moves first.
func (m *Manager) Invite(opponent string) Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := &Game{
		ID:          crypto.NewGameID(),
		Opponent:    opponent,
		LocalSymbol: SymbolX,
		NextTurn:    SymbolX,
	}
	m.games[g.ID] = g
	return *g
}

// HandleInvite registers a game a peer opened with us. inviterSymbol
// is the symbol the inviter claimed; we take the other one. A repeat
// invite for a known game returns the existing session unchanged.
func (m *Manager) HandleInvite(gameID, from string, inviterSymbol byte) Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.games[gameID]; ok {
		return *g
	}
	g := &Game{
		ID:          gameID,
		Opponent:    from,
		LocalSymbol: Other(inviterSymbol),
		NextTurn:    SymbolX,
	}
	m.games[gameID] = g
	return *g
}

// ApplyLocal plays our symbol at pos.
func (m *Manager) ApplyLocal(gameID string, pos int) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return Game{}, ErrUnknownGame
	}
	// A settled game beats the turn check; the last mover keeps
	// NextTurn, which would misreport the rejection
	if g.Finished {
		return *g, ErrFinished
	}
	if g.NextTurn != g.LocalSymbol {
		return *g, ErrNotYourGame
	}
	if err := g.apply(pos, g.LocalSymbol); err != nil {
		return *g, err
	}
	return *g, nil
}

// ApplyRemote plays the opponent's move as announced on the wire.
func (m *Manager) ApplyRemote(gameID string, pos int, symbol byte) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return Game{}, ErrUnknownGame
	}
	if symbol == g.LocalSymbol {
		return *g, ErrNotYourGame
	}
	if err := g.apply(pos, symbol); err != nil {
		return *g, err
	}
	return *g, nil
}

// HandleResult marks a game finished on a peer's say-so, for the case
// where their RESULT arrives before our board caught up.
func (m *Manager) HandleResult(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		g.Finished = true
	}
}

// Get returns a copy of one session.
func (m *Manager) Get(gameID string) (Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return Game{}, false
	}
	return *g, true
}

// List returns copies of every session.
func (m *Manager) List() []Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, *g)
	}
	return out
}
