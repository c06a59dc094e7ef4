// Package session binds browser cookies to per-session dashboard state so
// multiple independent dashboards can coexist against one server.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"finboard/internal/cache"
	"finboard/internal/dashboard"
)

const CookieName = "finboard_session"

// Session is one browser's dashboard state. Handlers hold the lock for the
// duration of a request; overlapping requests from the same browser are
// serialized rather than racing on the state.
type Session struct {
	ID string
	mu sync.Mutex

	State *dashboard.State
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Store keeps sessions in a TTL'd LRU cache. A session that idles past the
// TTL simply starts over with default state; nothing here is persistent.
type Store struct {
	sessions *cache.Cache[*Session]
}

func NewStore(maxEntries int, ttl time.Duration) *Store {
	return &Store{sessions: cache.New[*Session](maxEntries, ttl)}
}

// Get returns the session for the request's cookie, minting a new session
// (and setting the cookie) when there is none or it has expired.
func (s *Store) Get(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}

	sess := &Session{
		ID:    uuid.NewString(),
		State: dashboard.NewState(),
	}
	s.sessions.Set(sess.ID, sess)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}

// Janitor prunes expired sessions until stop is closed.
func (s *Store) Janitor(interval time.Duration, stop <-chan struct{}) {
	s.sessions.Janitor(interval, stop)
}
