package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"routeiq/internal/assistant"
	"routeiq/internal/domain"
	"routeiq/internal/planner"
)

// MaxAlerts is how many alerts a session keeps, newest first
const MaxAlerts = 3

type Session struct {
	ID           string
	State        *planner.SearchState
	Conversation *assistant.Conversation
	CreatedAt    time.Time

	mu          sync.Mutex
	alerts      []domain.Alert
	lastSeen    time.Time
	origin      string
	destination string
}

// SetTrip records the last searched origin and destination as entered
func (s *Session) SetTrip(origin, destination string) {
	s.mu.Lock()
	s.origin, s.destination = origin, destination
	s.mu.Unlock()
}

func (s *Session) Trip() (origin, destination string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin, s.destination
}

// AddAlert prepends an alert and trims the board to MaxAlerts
func (s *Session) AddAlert(alertType domain.AlertType, title, message string) domain.Alert {
	a := domain.Alert{
		ID:        uuid.NewString(),
		Type:      alertType,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append([]domain.Alert{a}, s.alerts...)
	if len(s.alerts) > MaxAlerts {
		s.alerts = s.alerts[:MaxAlerts]
	}
	return a
}

func (s *Session) Alerts() []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.Alert, len(s.alerts))
	copy(result, s.alerts)
	return result
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Store keeps sessions in memory and forgets those idle longer than
// staleAfter.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	staleAfter time.Duration
}

func New(staleAfter time.Duration) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		staleAfter: staleAfter,
	}
}

func (s *Store) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:           uuid.NewString(),
		State:        planner.NewSearchState(),
		Conversation: &assistant.Conversation{},
		CreatedAt:    now,
		lastSeen:     now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session and marks it as recently used
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.touch(time.Now())
	return sess, true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// PruneStale removes idle sessions and returns their IDs
func (s *Store) PruneStale() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.staleAfter)
	var removed []string

	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			removed = append(removed, id)
			delete(s.sessions, id)
		}
	}
	return removed
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
