package viewmodel

import (
	"errors"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrSessionNotFound = errors.New("session not found")

const DefaultMaxSessions = 1024

// Store keeps the most recently used sessions in memory.
type Store struct {
	cache *lru.Cache[string, *Session]
}

func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	cache, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache}, nil
}

func (s *Store) Create(advisorID string, now time.Time) *Session {
	sess := newSession(uuid.NewString(), advisorID, now)
	s.cache.Add(sess.id, sess)
	return sess
}

// Get returns the session owned by advisorID. Sessions of other advisors
// are reported as missing.
func (s *Store) Get(id, advisorID string) (*Session, error) {
	sess, ok := s.cache.Get(id)
	if !ok || sess.advisorID != advisorID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) Delete(id, advisorID string) error {
	if _, err := s.Get(id, advisorID); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}

func (s *Store) Len() int { return s.cache.Len() }
