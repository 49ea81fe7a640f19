package engine

import (
	"errors"
	"fmt"

	"github.com/vocabhub/anki-gateway/internal/anki"
	"github.com/vocabhub/anki-gateway/internal/card"
	"github.com/vocabhub/anki-gateway/internal/channel"
	"github.com/vocabhub/anki-gateway/internal/enrich"
	"github.com/vocabhub/anki-gateway/internal/session"
)

const welcomeText = `🤖 *Welcome to the Anki vocabulary bot!*

*Commands:*
/start - Show this message
/help - Show help
/word - Look up a word and create a card

*How to use:*
1. Send /word or just type an English word
2. The bot looks it up with AI
3. You can create a card in Anki

*Requirements:*
• Anki must be open
• AnkiConnect installed

Let's go! 🚀`

const helpText = `📖 *Anki bot help*

*Features:*
• Look up English words
• Get complete word information with AI
• Create Anki cards automatically
• Check whether the word already exists in your decks

*Workflow:*
1. Type an English word
2. The bot asks the AI for complete information
3. Create the card in Anki with one tap

Ready to learn! 🎓`

func reply(text string) []*channel.Response {
	return []*channel.Response{{Text: text}}
}

func enrichFailureReason(err error) string {
	var formatErr *enrich.FormatError
	if errors.As(err, &formatErr) {
		return "malformed"
	}
	return "unavailable"
}

func enrichFailureResponse(err error) *channel.Response {
	var formatErr *enrich.FormatError
	if errors.As(err, &formatErr) {
		return &channel.Response{Text: "❌ The AI answered with something I could not read. Try again."}
	}
	return &channel.Response{Text: "❌ Failed to get information from the AI. Try again."}
}

func confirmCreationResponse(record *card.Record) *channel.Response {
	return &channel.Response{
		Text: card.FormatRecordInfo(record),
		Buttons: [][]channel.Button{
			{
				{Label: "✅ Create card", Data: tokenConfirmCreate},
				{Label: "❌ Cancel", Data: tokenCancel},
			},
		},
	}
}

func editMenuResponse(record *card.Record) *channel.Response {
	buttons := make([][]channel.Button, 0, len(card.EditableFields)+1)
	labels := map[string]string{
		card.FieldWord:           "📝 Word",
		card.FieldPronunciation:  "🔊 Pronunciation",
		card.FieldMeanings:       "📖 Meanings",
		card.FieldExampleCommon:  "💬 Common sentence",
		card.FieldExampleMedical: "🏥 Medical sentence",
	}
	for _, field := range card.EditableFields {
		buttons = append(buttons, []channel.Button{
			{Label: labels[field], Data: tokenEditField + field},
		})
	}
	buttons = append(buttons, []channel.Button{
		{Label: "✅ Finish editing", Data: tokenFinishEditing},
		{Label: "🚪 Exit without saving", Data: tokenCancel},
	})
	return &channel.Response{
		Text:    card.FormatEditMenu(record),
		Buttons: buttons,
	}
}

func editFieldPrompt(record *card.Record, field string) string {
	current := record.FieldValue(field)
	if current == "" {
		current = "Empty"
	}
	return fmt.Sprintf(`✍️ *Editing %s*

📋 *Current value:*
%s

*Send the new value, or /skip to keep the current one.*`,
		card.FieldLabel(field), current)
}

func previewResponses(s *session.Session) []*channel.Response {
	return []*channel.Response{{
		Text: card.FormatPreview(s.Record, anki.ResolveTemplate(s.Template)),
		Buttons: [][]channel.Button{
			{
				{Label: "✅ Create card", Data: tokenConfirmFinal},
				{Label: "✏️ Edit", Data: tokenEditCard},
			},
			{{Label: "❌ Cancel", Data: tokenCancel}},
		},
	}}
}

func existingNotes(notes []anki.NoteInfo) []card.ExistingNote {
	out := make([]card.ExistingNote, 0, len(notes))
	for _, n := range notes {
		out = append(out, card.ExistingNote{
			NoteID: n.NoteID,
			Front:  n.Fields["Front"].Value,
			Back:   n.Fields["Back"].Value,
		})
	}
	return out
}

func commitFailureOutcome(err error) string {
	switch {
	case errors.Is(err, anki.ErrDuplicate):
		return "duplicate"
	default:
		var connErr *anki.ConnectivityError
		if errors.As(err, &connErr) {
			return "connectivity"
		}
		return "store_error"
	}
}

func commitFailureMessage(err error) string {
	if errors.Is(err, anki.ErrDuplicate) {
		return "The card was rejected as a duplicate."
	}
	var connErr *anki.ConnectivityError
	if errors.As(err, &connErr) {
		return "Cannot reach Anki. Is Anki running with AnkiConnect installed?"
	}
	var storeErr *anki.StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Message
	}
	return err.Error()
}
