package quiz

import (
	"sync"

	"github.com/korjavin/docquizbot/models"
)

// Session is the in-memory state of one quiz attempt.
type Session struct {
	Questions []models.Question
	Cursor    int
	Answers   map[int]int

	index map[string]int
}

// TotalCount is the number of questions in the session.
func (s *Session) TotalCount() int { return len(s.Questions) }

// Progress summarizes how far a session has come.
type Progress struct {
	Emitted  int
	Answered int
	Total    int
}

// Complete reports whether every question was emitted and answered.
func (p Progress) Complete() bool {
	return p.Emitted == p.Total && p.Answered == p.Total
}

func (s *Session) progress() Progress {
	return Progress{Emitted: s.Cursor, Answered: len(s.Answers), Total: len(s.Questions)}
}

// Store holds at most one active session per user.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// StartSession replaces any session of the user with a fresh one.
func (s *Store) StartSession(userID int64, questions []models.Question) {
	sess := &Session{
		Questions: questions,
		Answers:   make(map[int]int),
		index:     make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		if q.ID != "" {
			sess.index[q.ID] = i
		}
	}

	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
}

// Has reports whether the user has an active session.
func (s *Store) Has(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// Progress returns the progress of the user's session.
func (s *Store) Progress(userID int64) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Progress{}, ErrNoActiveSession
	}
	return sess.progress(), nil
}

// Clear drops the user's session, if any.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
