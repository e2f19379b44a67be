package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	authmodel "github.com/zhouzirui/tg-gateway/internal/model/auth"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

// Session is one in-flight login. The store owns its client until the
// session is taken or evicted.
type Session struct {
	ID        string
	Phone     string
	CodeHash  string
	Identity  string
	Client    telegram.Client
	CreatedAt time.Time

	// mu serializes handshake steps on the same connection.
	mu    sync.Mutex
	state authmodel.State
}

// State returns the current handshake step.
func (s *Session) State() authmodel.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Store keeps pending logins keyed by session id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put inserts or replaces a session. A replaced session's client is stopped.
func (s *Store) Put(session *Session) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}

	s.mu.Lock()
	old, exists := s.sessions[session.ID]
	s.sessions[session.ID] = session
	s.mu.Unlock()

	if exists && old != session {
		stopClient(old, "replaced")
	}
}

// Get returns the session stored under id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// holds reports whether session is still the live entry for its id.
func (s *Store) holds(session *Session) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[session.ID] == session
}

// Take removes session and hands its client to the caller.
func (s *Store) Take(session *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[session.ID] != session {
		return false
	}
	delete(s.sessions, session.ID)
	return true
}

// Evict removes session and stops its client.
func (s *Store) Evict(session *Session) bool {
	if !s.Take(session) {
		return false
	}
	stopClient(session, "evicted")
	return true
}

// Sweep evicts sessions created more than ttl before now. Sessions in the
// middle of a handshake step are left for the next sweep.
func (s *Store) Sweep(now time.Time) int {
	var expired []*Session

	s.mu.Lock()
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) < s.ttl {
			continue
		}
		if !session.mu.TryLock() {
			continue
		}
		session.state = authmodel.StateFailed
		session.mu.Unlock()
		delete(s.sessions, id)
		expired = append(expired, session)
	}
	s.mu.Unlock()

	for _, session := range expired {
		stopClient(session, "expired")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				log.Info().Int("expired", n).Int("pending", s.Len()).Msg("auth sessions swept")
			}
		}
	}
}

// Close stops every pending session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for id, session := range s.sessions {
		sessions = append(sessions, session)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		stopClient(session, "closed")
	}
}

// Len returns the number of pending sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func stopClient(session *Session, reason string) {
	if session.Client == nil {
		return
	}
	if err := session.Client.Stop(); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Str("client", session.Identity).Str("reason", reason).Msg("failed to stop auth client")
		return
	}
	log.Debug().Str("session_id", session.ID).Str("client", session.Identity).Str("reason", reason).Msg("auth client stopped")
}
