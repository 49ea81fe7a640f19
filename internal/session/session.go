package session

import (
	"sync"
	"time"

	"github.com/vocabhub/anki-gateway/internal/card"
	"github.com/vocabhub/anki-gateway/internal/metrics"
)

// State is the conversation state tag of one user's workflow
type State int

const (
	StateIdle State = iota
	StateAwaitingWord
	StateConfirmCreation
	StateChooseTemplate
	StateChooseDeck
	StatePreview
	StateEditMenu
	StateEditingField
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingWord:
		return "awaiting-word"
	case StateConfirmCreation:
		return "confirm-creation"
	case StateChooseTemplate:
		return "choose-template"
	case StateChooseDeck:
		return "choose-deck"
	case StatePreview:
		return "preview"
	case StateEditMenu:
		return "edit-menu"
	case StateEditingField:
		return "editing-field"
	}
	return "unknown"
}

// Session is the per-user, in-memory conversation state. It exists
// only while a workflow is in progress and is never persisted.
type Session struct {
	UserID          int64
	State           State
	Record          *card.Record
	Template        string
	Deck            string
	EditingField    string
	EditingExisting bool
	ExistingNoteID  int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reset clears the session back to idle, discarding any workflow
// progress. Called on cancel and after every commit attempt.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Record = nil
	s.Template = ""
	s.Deck = ""
	s.EditingField = ""
	s.EditingExisting = false
	s.ExistingNoteID = 0
	s.UpdatedAt = time.Now()
}

// Active reports whether a workflow is in progress
func (s *Session) Active() bool {
	return s.State != StateIdle
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store keeps sessions keyed by user id. Sessions are created on a
// user's first event and mutated only inside Do, which serializes
// transitions per user while leaving different users independent.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

func (st *Store) get(userID int64) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[userID]
	if !ok {
		e = &entry{session: &Session{
			UserID:    userID,
			State:     StateIdle,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}}
		st.entries[userID] = e
	}
	return e
}

// Do runs fn with the user's session under that user's lock. At most
// one transition per user is in flight at a time; the lock is held
// across any blocking calls fn makes.
func (st *Store) Do(userID int64, fn func(*Session)) {
	e := st.get(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	wasActive := e.session.Active()
	fn(e.session)
	e.session.UpdatedAt = time.Now()

	if active := e.session.Active(); active != wasActive {
		if active {
			metrics.ActiveSessions.Inc()
		} else {
			metrics.ActiveSessions.Dec()
		}
	}
}

// Snapshot returns a copy of the user's session for read-only use
func (st *Store) Snapshot(userID int64) Session {
	e := st.get(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.session
}

// ActiveCount returns how many users have a workflow in progress
func (st *Store) ActiveCount() int {
	return len(st.ActiveSessions())
}

// ActiveSessions returns copies of every in-progress session
func (st *Store) ActiveSessions() []Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []Session
	for _, e := range st.entries {
		e.mu.Lock()
		if e.session.Active() {
			out = append(out, *e.session)
		}
		e.mu.Unlock()
	}
	return out
}
