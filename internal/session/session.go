// Package session holds the per-operator working state that lives between
// requests: scoring tables, the calculated ranking, the selected project and
// the in-progress evaluation drafts. Drafts stay in memory until the operator
// explicitly saves them.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ugclabs/innova/internal/modules/ebct"
	"github.com/ugclabs/innova/internal/modules/maturity"
	"github.com/ugclabs/innova/internal/modules/scoring"
)

// Phase gating failures. The HTTP layer maps these to a 409 telling the
// operator to go back to the previous phase.
var (
	ErrRankingRequired = errors.New("no hay ranking calculado: vuelve a la Fase 0 y calcula el ranking")
	ErrProjectRequired = errors.New("no hay proyecto seleccionado: vuelve a seleccionar un proyecto")
)

// Session is one operator's working state.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time

	Tables     scoring.Tables
	Thresholds scoring.Thresholds

	Ranking        []scoring.RankedProject
	RankingSummary *scoring.Summary

	SelectedProject *int

	Maturity  *maturity.State
	EBCTDraft map[int]ebct.Status

	mu sync.Mutex
}

// Lock serializes access to the session's mutable state for one request.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// RequireRanking gates the Fase 1 endpoints on a calculated ranking.
func (s *Session) RequireRanking() error {
	if len(s.Ranking) == 0 {
		return ErrRankingRequired
	}
	return nil
}

// RequireProject gates the evaluation endpoints on a selected project.
func (s *Session) RequireProject() (int, error) {
	if s.SelectedProject == nil {
		return 0, ErrProjectRequired
	}
	return *s.SelectedProject, nil
}

// SelectProject records the project under evaluation and resets the drafts,
// which belong to the previous selection.
func (s *Session) SelectProject(projectID int, maturityState *maturity.State) {
	s.SelectedProject = &projectID
	s.Maturity = maturityState
	s.EBCTDraft = make(map[int]ebct.Status)
}

// Manager tracks live sessions and evicts the ones idle past the TTL.
type Manager struct {
	sessions map[string]*Session
	ttl      time.Duration
	mu       sync.RWMutex
	log      zerolog.Logger
}

// NewManager creates a session manager. Each fresh session starts with its
// own copy of the default scoring tables.
func NewManager(ttl time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      log.With().Str("component", "sessions").Logger(),
	}
}

// Ensure returns the session for the given id, creating a fresh one when the
// id is empty or unknown. The returned session's LastSeen is updated.
func (m *Manager) Ensure(id string) *Session {
	now := time.Now()

	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			m.mu.Lock()
			s.LastSeen = now
			m.mu.Unlock()
			return s
		}
	}

	tables := scoring.DefaultTables()
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastSeen:   now,
		Tables:     tables,
		Thresholds: tables.Thresholds(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Debug().Str("session_id", s.ID).Msg("Created session")
	return s
}

// Get returns the session for the id without creating one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune evicts sessions idle past the TTL and returns how many were removed.
func (m *Manager) Prune() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Info().Int("removed", removed).Int("remaining", len(m.sessions)).Msg("Pruned idle sessions")
	}
	return removed
}
