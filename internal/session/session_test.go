package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vocabhub/anki-gateway/internal/card"
)

func TestCreateOnFirstTouch(t *testing.T) {
	st := NewStore()
	st.Do(111, func(s *Session) {
		assert.Equal(t, int64(111), s.UserID)
		assert.Equal(t, StateIdle, s.State)
		assert.Nil(t, s.Record)
	})
}

func TestStateSurvivesAcrossEvents(t *testing.T) {
	st := NewStore()
	st.Do(111, func(s *Session) {
		s.State = StateConfirmCreation
		s.Record = &card.Record{Word: "run"}
	})
	st.Do(111, func(s *Session) {
		assert.Equal(t, StateConfirmCreation, s.State)
		assert.Equal(t, "run", s.Record.Word)
	})
}

func TestResetClearsEverything(t *testing.T) {
	st := NewStore()
	st.Do(111, func(s *Session) {
		s.State = StateEditingField
		s.Record = &card.Record{Word: "run"}
		s.Template = "basic_card"
		s.Deck = "deck_step1"
		s.EditingField = card.FieldWord
		s.EditingExisting = true
		s.ExistingNoteID = 42
		s.Reset()

		assert.Equal(t, StateIdle, s.State)
		assert.Nil(t, s.Record)
		assert.Empty(t, s.Template)
		assert.Empty(t, s.Deck)
		assert.Empty(t, s.EditingField)
		assert.False(t, s.EditingExisting)
		assert.Zero(t, s.ExistingNoteID)
	})
}

func TestSessionsAreIndependent(t *testing.T) {
	st := NewStore()
	st.Do(111, func(s *Session) { s.State = StatePreview })
	st.Do(222, func(s *Session) {
		assert.Equal(t, StateIdle, s.State)
	})
	assert.Equal(t, 1, st.ActiveCount())
}

func TestSameUserIsSerialized(t *testing.T) {
	st := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		st.Do(111, func(s *Session) {
			close(entered)
			<-release
			s.State = StateAwaitingWord
		})
	}()

	<-entered
	done := make(chan struct{})
	go func() {
		st.Do(111, func(s *Session) {
			// must observe the first transition's write
			assert.Equal(t, StateAwaitingWord, s.State)
		})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second transition ran while the first held the session")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-done
}

func TestOtherUsersNotBlocked(t *testing.T) {
	st := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})

	go st.Do(111, func(*Session) {
		close(entered)
		<-release
	})
	<-entered

	done := make(chan struct{})
	go st.Do(222, func(*Session) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("transition for a different user blocked")
	}
	close(release)
}

func TestSnapshot(t *testing.T) {
	st := NewStore()
	st.Do(111, func(s *Session) { s.State = StateChooseDeck })

	snap := st.Snapshot(111)
	snap.State = StateIdle

	st.Do(111, func(s *Session) {
		assert.Equal(t, StateChooseDeck, s.State)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "editing-field", StateEditingField.String())
	assert.Equal(t, "unknown", State(99).String())
}
