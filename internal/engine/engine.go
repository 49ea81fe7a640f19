package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocabhub/anki-gateway/internal/anki"
	"github.com/vocabhub/anki-gateway/internal/auth"
	"github.com/vocabhub/anki-gateway/internal/card"
	"github.com/vocabhub/anki-gateway/internal/channel"
	"github.com/vocabhub/anki-gateway/internal/metrics"
	"github.com/vocabhub/anki-gateway/internal/session"
)

// ErrValidation reports a commit attempted without the required word
// field.
var ErrValidation = errors.New("word record is missing the word field")

// Gateway is the subset of the flashcard store client the engine calls
type Gateway interface {
	AddNote(ctx context.Context, deck, template, front, back string) (int64, error)
	UpdateNoteFields(ctx context.Context, noteID int64, front, back string) error
	NotesInfo(ctx context.Context, ids []int64) []anki.NoteInfo
}

// Searcher finds existing note ids for a word across the configured decks
type Searcher interface {
	Search(ctx context.Context, word string) []int64
}

// Enricher asks the text-generation service for a word record
type Enricher interface {
	Enrich(ctx context.Context, word string) (*card.Record, error)
}

// Engine is the per-user conversation state machine. It consumes
// inbound events, reads and writes the session store, and produces the
// outbound replies. All transitions for one user run serialized under
// the session store's per-user lock.
type Engine struct {
	authorizer *auth.Authorizer
	sessions   *session.Store
	gateway    Gateway
	searcher   Searcher
	enricher   Enricher
	logger     *slog.Logger
}

// New creates a conversation engine
func New(authorizer *auth.Authorizer, sessions *session.Store, gateway Gateway, searcher Searcher, enricher Enricher, logger *slog.Logger) *Engine {
	return &Engine{
		authorizer: authorizer,
		sessions:   sessions,
		gateway:    gateway,
		searcher:   searcher,
		enricher:   enricher,
		logger:     logger,
	}
}

// Handle processes one inbound event and returns the replies to send.
// Events from unlisted users are rejected with a fixed denial and no
// state change.
func (e *Engine) Handle(ctx context.Context, msg *channel.Message) []*channel.Response {
	if !e.authorizer.IsAuthorized(msg.UserID) {
		metrics.EventsHandled.WithLabelValues("denied").Inc()
		return reply(auth.DenialMessage)
	}

	var out []*channel.Response
	e.sessions.Do(msg.UserID, func(s *session.Session) {
		switch msg.Kind {
		case channel.KindCommand:
			metrics.EventsHandled.WithLabelValues("command").Inc()
			out = e.handleCommand(ctx, s, msg.Command, msg.Args)
		case channel.KindCallback:
			metrics.EventsHandled.WithLabelValues("callback").Inc()
			out = e.handleCallback(ctx, s, msg.CallbackData)
		default:
			metrics.EventsHandled.WithLabelValues("text").Inc()
			out = e.handleText(ctx, s, msg.Text)
		}
	})
	return out
}

func (e *Engine) handleCommand(ctx context.Context, s *session.Session, command, args string) []*channel.Response {
	switch command {
	case "start":
		return reply(welcomeText)
	case "help":
		return reply(helpText)
	case "word":
		if args != "" {
			return e.processWord(ctx, s, args)
		}
		s.State = session.StateAwaitingWord
		return reply("✍️ Please type the English word you want to look up:")
	case "skip":
		return e.handleSkip(s)
	}
	return reply("Unknown command. Send /help to see what I can do.")
}

func (e *Engine) handleSkip(s *session.Session) []*channel.Response {
	if s.State != session.StateEditingField {
		return reply("ℹ️ /skip only works while you are editing a field.")
	}
	field := s.EditingField
	s.EditingField = ""
	s.State = session.StateEditMenu
	return append(
		reply(fmt.Sprintf("⏭️ Field %q left unchanged. Back to the edit menu...", card.FieldLabel(field))),
		editMenuResponse(s.Record),
	)
}

func (e *Engine) handleText(ctx context.Context, s *session.Session, text string) []*channel.Response {
	switch s.State {
	case session.StateIdle, session.StateAwaitingWord:
		return e.processWord(ctx, s, text)
	case session.StateEditingField:
		return e.applyFieldEdit(s, text)
	}
	// Mid-flow free text is not a transition; keep the state as is.
	return reply("Please use the buttons above, or press ❌ Cancel to start over.")
}

// processWord drives the lookup step: duplicate detection first, AI
// enrichment only when the word is absent from every configured deck.
func (e *Engine) processWord(ctx context.Context, s *session.Session, word string) []*channel.Response {
	out := reply(fmt.Sprintf("🔍 Looking up: %s", word))

	ids := e.searcher.Search(ctx, word)
	if len(ids) > 0 {
		notes := e.gateway.NotesInfo(ctx, ids)
		listing := card.FormatExistingNotes(existingNotes(notes))

		// No record yet: only the edit/create buttons advance from
		// here, and confirm_create requires an enriched record.
		s.State = session.StateConfirmCreation
		return append(out, &channel.Response{
			Text: fmt.Sprintf("✅ The word '%s' already exists in Anki\n\n%s", word, listing),
			Buttons: [][]channel.Button{
				{
					{Label: "✏️ Edit existing", Data: tokenEditExisting + word},
					{Label: "🆕 Create new", Data: tokenCreateNew + word},
				},
				{{Label: "❌ Cancel", Data: tokenCancel}},
			},
		})
	}

	record, err := e.enrich(ctx, word)
	if err != nil {
		return append(out, enrichFailureResponse(err))
	}

	s.Record = record
	s.State = session.StateConfirmCreation
	return append(out, confirmCreationResponse(record))
}

func (e *Engine) enrich(ctx context.Context, word string) (*card.Record, error) {
	start := time.Now()
	record, err := e.enricher.Enrich(ctx, word)
	metrics.EnrichmentLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		e.logger.Warn("enrichment failed", "word", word, "error", err)
		metrics.EnrichmentFailures.WithLabelValues(enrichFailureReason(err)).Inc()
		return nil, err
	}
	return record, nil
}

func (e *Engine) handleCallback(ctx context.Context, s *session.Session, data string) []*channel.Response {
	action, err := ParseAction(data)
	if err != nil {
		e.logger.Warn("rejected callback payload", "data", data, "state", s.State.String())
		return reply("That choice is no longer valid.")
	}

	switch a := action.(type) {
	case CancelAction:
		s.Reset()
		return reply("❌ Operation cancelled.")

	case EditExistingAction:
		if s.State != session.StateConfirmCreation {
			return e.invalidTransition(s)
		}
		return e.editExisting(ctx, s, a.Word)

	case CreateNewAction:
		if s.State != session.StateConfirmCreation {
			return e.invalidTransition(s)
		}
		out := reply(fmt.Sprintf("🆕 Creating a new card for: %s", a.Word))
		record, err := e.enrich(ctx, a.Word)
		if err != nil {
			s.Reset()
			return append(out, enrichFailureResponse(err))
		}
		s.Record = record
		s.State = session.StateConfirmCreation
		return append(out, confirmCreationResponse(record))

	case ConfirmCreateAction:
		if s.State != session.StateConfirmCreation || s.Record == nil {
			return e.invalidTransition(s)
		}
		s.State = session.StateChooseTemplate
		return []*channel.Response{{
			Text: "🎴 Pick the card type:",
			Buttons: [][]channel.Button{
				{
					{Label: "📝 Basic", Data: tokenBasicCard},
					{Label: "🔄 Reversed", Data: tokenReversedCard},
				},
				{{Label: "❌ Cancel", Data: tokenCancel}},
			},
		}}

	case ChooseTemplateAction:
		if s.State != session.StateChooseTemplate {
			return e.invalidTransition(s)
		}
		s.Template = a.Template
		s.State = session.StateChooseDeck
		return []*channel.Response{{
			Text: "📁 Pick the deck for the card:",
			Buttons: [][]channel.Button{
				{
					{Label: "📚 STEP 1", Data: "deck_step1"},
					{Label: "🎓 Self-Learning", Data: "deck_self_learning"},
				},
				{{Label: "❌ Cancel", Data: tokenCancel}},
			},
		}}

	case ChooseDeckAction:
		if s.State != session.StateChooseDeck {
			return e.invalidTransition(s)
		}
		s.Deck = a.Deck
		s.State = session.StatePreview
		return previewResponses(s)

	case ConfirmFinalAction:
		if s.State != session.StatePreview {
			return e.invalidTransition(s)
		}
		return e.commit(ctx, s)

	case EditCardAction:
		if s.State != session.StatePreview {
			return e.invalidTransition(s)
		}
		s.State = session.StateEditMenu
		return []*channel.Response{editMenuResponse(s.Record)}

	case EditFieldAction:
		if s.State != session.StateEditMenu || !card.IsEditable(a.Field) {
			return e.invalidTransition(s)
		}
		s.EditingField = a.Field
		s.State = session.StateEditingField
		return reply(editFieldPrompt(s.Record, a.Field))

	case FinishEditingAction:
		if s.State != session.StateEditMenu {
			return e.invalidTransition(s)
		}
		s.State = session.StatePreview
		return append(reply("✅ Editing finished."), previewResponses(s)...)
	}

	return e.invalidTransition(s)
}

func (e *Engine) invalidTransition(s *session.Session) []*channel.Response {
	e.logger.Debug("ignored event in current state", "state", s.State.String())
	return reply("That choice does not apply right now. Press ❌ Cancel to start over.")
}

// editExisting loads the first matching note into the edit loop.
func (e *Engine) editExisting(ctx context.Context, s *session.Session, word string) []*channel.Response {
	out := reply(fmt.Sprintf("✏️ Editing the existing card for: %s", word))

	ids := e.searcher.Search(ctx, word)
	if len(ids) == 0 {
		return append(out, &channel.Response{Text: "❌ The card to edit could not be found."})
	}

	notes := e.gateway.NotesInfo(ctx, ids[:1])
	if len(notes) == 0 {
		return append(out, &channel.Response{Text: "❌ Failed to fetch the card contents."})
	}

	note := notes[0]
	s.Record = card.ParseNote(note.Fields["Front"].Value, note.Fields["Back"].Value, word)
	s.EditingExisting = true
	s.ExistingNoteID = note.NoteID
	s.State = session.StateEditMenu
	return append(out, editMenuResponse(s.Record))
}

func (e *Engine) applyFieldEdit(s *session.Session, text string) []*channel.Response {
	field := s.EditingField
	if field == "" || s.Record == nil {
		s.State = session.StateIdle
		return reply("❌ No field is being edited.")
	}

	s.Record.SetField(field, text)
	s.EditingField = ""
	s.State = session.StateEditMenu
	return append(reply("✅ Field updated."), editMenuResponse(s.Record))
}

// commit performs the terminal create-or-update against the flashcard
// store. Whatever the outcome, the session is cleared: failures are
// reported once and never retried automatically.
func (e *Engine) commit(ctx context.Context, s *session.Session) []*channel.Response {
	record := s.Record
	deck := s.Deck
	template := s.Template
	updating := s.EditingExisting && s.ExistingNoteID != 0
	noteID := s.ExistingNoteID

	s.Reset()

	if record == nil || record.Word == "" {
		e.logger.Warn("commit rejected", "error", ErrValidation)
		metrics.Commits.WithLabelValues("validation").Inc()
		return reply("❌ The card has no word. Start over by sending a word.")
	}

	front := card.RenderFront(record)
	back := card.RenderBack(record)

	var out []*channel.Response
	var err error
	if updating {
		out = reply("⏳ Updating the card in Anki...")
		err = e.gateway.UpdateNoteFields(ctx, noteID, front, back)
	} else {
		out = reply("⏳ Creating the card in Anki...")
		_, err = e.gateway.AddNote(ctx, deck, template, front, back)
	}

	if err != nil {
		action := "create"
		if updating {
			action = "update"
		}
		e.logger.Error("commit failed", "action", action, "word", record.Word, "error", err)
		metrics.Commits.WithLabelValues(commitFailureOutcome(err)).Inc()
		return append(out, &channel.Response{
			Text: fmt.Sprintf("❌ Failed to %s the card:\n%s", action, commitFailureMessage(err)),
		})
	}

	metrics.Commits.WithLabelValues("success").Inc()
	return append(out, &channel.Response{
		Text: card.FormatCommitSuccess(record, anki.ResolveDeck(deck), anki.ResolveTemplate(template), updating),
	})
}
