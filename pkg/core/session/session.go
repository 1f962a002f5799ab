// Package session holds per-conversation state: an append-only message
// history and a processing flag that serializes exchanges for one session.
package session

import (
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when a session already has an exchange in flight.
var ErrBusy = errors.New("session is already processing an exchange")

// ErrNotFound is returned when looking up a session that does not exist.
var ErrNotFound = errors.New("session not found")

// Turn is one role-tagged history entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one client's conversation context. All fields are guarded by
// the owning Store's mutex; callers only see snapshots.
type Session struct {
	id         string
	createdAt  time.Time
	history    []Turn
	processing bool
}

// Info is a read-only snapshot of session metadata.
type Info struct {
	ID         string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	Turns      int       `json:"message_count"`
	Processing bool      `json:"is_processing"`
}

// Store is the in-memory session registry. Sessions are created lazily on
// first contact and live until deleted or process exit; there is no
// persistence.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *Store) getOrCreateLocked(id string) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{
			id:        id,
			createdAt: s.now(),
			history:   make([]Turn, 0, 16),
		}
		s.sessions[id] = sess
	}
	return sess
}

// Begin marks the session as processing, creating it if needed. It fails
// with ErrBusy when an exchange is already in flight, keeping history
// ordering consistent with causal request order. On success the returned
// release func clears the flag; it is safe to call more than once and must
// be called exactly on every path, success or failure.
func (s *Store) Begin(id string) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(id)
	if sess.processing {
		return nil, ErrBusy
	}
	sess.processing = true

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			// The session may have been deleted while processing.
			if cur, ok := s.sessions[id]; ok && cur == sess {
				cur.processing = false
			}
			s.mu.Unlock()
		})
	}, nil
}

// Append records one completed exchange: the user turn followed by the
// assistant turn, preserving insertion order.
func (s *Store) Append(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(id)
	sess.history = append(sess.history,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)
}

// History returns a copy of the session's ordered history. A missing
// session yields an empty history.
func (s *Store) History(id string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]Turn, len(sess.history))
	copy(out, sess.history)
	return out
}

// Get returns a metadata snapshot for the session.
func (s *Store) Get(id string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Info{}, ErrNotFound
	}
	return Info{
		ID:         sess.id,
		CreatedAt:  sess.createdAt,
		Turns:      len(sess.history),
		Processing: sess.processing,
	}, nil
}

// Delete removes the session. Reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Count returns the number of sessions currently held.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
