package biz

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"atlashub/cmd/atlas-service/internal/domain"
)

// Default lifecycle parameters.
const (
	DefaultSessionTTL = 30 * time.Minute
	DefaultSweepEvery = 5 * time.Minute
)

// SessionStore is the in-memory table of conversation sessions. It is
// the sole owner of session mutation: callers get defensive copies and
// change state only through store methods, which serializes concurrent
// writes to the same session.
//
// Every operation on an unknown or expired id is a no-op rather than
// an error; GetOrCreate transparently reallocates fresh state.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	log      *log.Helper

	// now is swappable in tests
	now func() time.Time
}

// NewSessionStore creates a store with the given idle TTL; ttl <= 0
// falls back to the default.
func NewSessionStore(ttl time.Duration, logger log.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		log:      log.NewHelper(log.With(logger, "module", "session-store")),
		now:      time.Now,
	}
}

// GetOrCreate returns the live session for id, or allocates a new one
// when id is empty, unknown or expired. It always succeeds.
func (s *SessionStore) GetOrCreate(id string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			if !sess.Expired(now, s.ttl) {
				return sess.Clone()
			}
			delete(s.sessions, id)
			s.log.Debugf("expired session reallocated: %s", id)
		}
	}

	sess := &domain.Session{
		ID:           uuid.New().String(),
		Turns:        make([]domain.Turn, 0, 8),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.ID] = sess
	MetricSessionsActive.Set(float64(len(s.sessions)))
	return sess.Clone()
}

// Get is a read-only lookup. Expired sessions are evicted and reported
// as absent.
func (s *SessionStore) Get(id string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if sess.Expired(s.now(), s.ttl) {
		delete(s.sessions, id)
		MetricSessionsActive.Set(float64(len(s.sessions)))
		return nil
	}
	return sess.Clone()
}

// AddTurn appends one turn, trims history to the cap and bumps
// LastActivity. Unknown ids are ignored.
func (s *SessionStore) AddTurn(id string, role domain.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	now := s.now()
	sess.Turns = append(sess.Turns, domain.Turn{Role: role, Text: text, Timestamp: now})
	if len(sess.Turns) > domain.MaxTurns {
		sess.Turns = sess.Turns[len(sess.Turns)-domain.MaxTurns:]
	}
	sess.LastActivity = now
}

// UpdateLastQuery stores the condensed query record and refreshes the
// resolved entities from what the query established: a single-subject
// result pins the subject, a group or location in play pins those.
func (s *SessionStore) UpdateLastQuery(id string, intent domain.Intent, entities domain.Entities, result *domain.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || result == nil {
		return
	}
	now := s.now()
	sess.LastQuery = &domain.LastQuery{
		Intent:    intent,
		Entities:  entities,
		QueryType: result.Type,
		Count:     result.Count,
		Timestamp: now,
	}
	sess.LastActivity = now

	if result.Detail != nil {
		sess.Resolved.SubjectID = result.Detail.ID
		sess.Resolved.Name = result.Detail.Name
	} else if len(result.Matches) == 1 {
		sess.Resolved.SubjectID = result.Matches[0].ID
		sess.Resolved.Name = result.Matches[0].Name
	}
	if entities.Group != "" {
		sess.Resolved.Group = entities.Group
	}
	if entities.Location != "" {
		sess.Resolved.Location = entities.Location
	}
	if entities.LocationCode != "" {
		sess.Resolved.LocationCode = entities.LocationCode
	}
}

// ResolveReferences fills entity fields the classifier left unset from
// the session's conversational memory. Explicit entities from the
// current turn are never overwritten.
func (s *SessionStore) ResolveReferences(id string, entities domain.Entities) domain.Entities {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now(), s.ttl) {
		return entities
	}
	return entities.Merge(sess.Resolved)
}

// Clear deletes a session immediately. It reports whether one existed.
func (s *SessionStore) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		MetricSessionsActive.Set(float64(len(s.sessions)))
	}
	return ok
}

// Sweep evicts every expired session and returns how many went.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	swept := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			delete(s.sessions, id)
			swept++
		}
	}
	if swept > 0 {
		MetricSessionsSwept.Add(float64(swept))
		MetricSessionsActive.Set(float64(len(s.sessions)))
		s.log.Infof("session sweep evicted %d sessions", swept)
	}
	return swept
}

// Len returns the number of live entries, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run drives the periodic sweep until the context is cancelled.
func (s *SessionStore) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultSweepEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.log.Info("session sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
