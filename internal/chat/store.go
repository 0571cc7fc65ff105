// Package chat implements the conversational help assistant and its session
// storage.
package chat

import (
	"sync"
	"time"
)

// Message is one stored conversation turn.
type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // ISO8601
}

// Session holds one conversation's history and context.
type Session struct {
	ID       string         `json:"sessionId"`
	UserID   string         `json:"userId,omitempty"`
	Messages []Message      `json:"messages"`
	Context  map[string]any `json:"-"`
}

type entry struct {
	session    Session
	lastActive time.Time
}

// Store keeps chat sessions in memory, bounded by TTL and capacity. Expired
// sessions are purged on access; when the capacity is exceeded the least
// recently active session is evicted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewStore builds a session store with the given bounds. Non-positive values
// fall back to 30 minutes and 500 sessions.
func NewStore(ttl time.Duration, capacity int) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if capacity <= 0 {
		capacity = 500
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// Load returns a copy of the session, refreshing its activity time.
func (s *Store) Load(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()

	e, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	e.lastActive = s.now()
	return copySession(e.session), true
}

// Save stores the session, evicting the least recently active one if the
// store is over capacity.
func (s *Store) Save(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()

	s.sessions[session.ID] = &entry{session: copySession(session), lastActive: s.now()}

	for len(s.sessions) > s.capacity {
		oldestID := ""
		var oldest time.Time
		for id, e := range s.sessions {
			if oldestID == "" || e.lastActive.Before(oldest) {
				oldestID = id
				oldest = e.lastActive
			}
		}
		delete(s.sessions, oldestID)
	}
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	return len(s.sessions)
}

func (s *Store) purgeLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.sessions {
		if e.lastActive.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func copySession(in Session) Session {
	out := in
	out.Messages = append([]Message(nil), in.Messages...)
	if in.Context != nil {
		out.Context = make(map[string]any, len(in.Context))
		for k, v := range in.Context {
			out.Context[k] = v
		}
	}
	return out
}
