package card

import (
	"fmt"
	"strings"
)

// truncateAt shortens long AI-generated prose for chat display.
const truncateAt = 200

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= truncateAt {
		return text
	}
	return string(runes[:truncateAt]) + "..."
}

func orNA(text string) string {
	if text == "" {
		return "N/A"
	}
	return text
}

// FormatRecordInfo renders the full enrichment result for chat display,
// shown right after a successful lookup.
func FormatRecordInfo(r *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 *Word:* %s\n\n", r.Word)

	b.WriteString("📖 *Meanings:*\n")
	for i, m := range r.Meanings {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, m)
	}
	fmt.Fprintf(&b, "🔊 *Pronunciation:* %s\n\n", orNA(r.Pronunciation))
	fmt.Fprintf(&b, "💬 *Common sentence:*\n%s\n\n", orNA(r.ExampleCommon))
	fmt.Fprintf(&b, "🏥 *Medical sentence:*\n%s\n\n", orNA(r.ExampleMedical))
	fmt.Fprintf(&b, "📝 *Grammar:*\n%s\n\n", truncate(orNA(r.Grammar)))
	fmt.Fprintf(&b, "📜 *Etymology:*\n%s\n", truncate(orNA(r.Etymology)))
	return b.String()
}

// ExistingNote is a stored note as shown in the duplicate listing.
type ExistingNote struct {
	NoteID int64
	Front  string
	Back   string
}

// FormatExistingNotes renders the duplicate-detection listing.
func FormatExistingNotes(notes []ExistingNote) string {
	if len(notes) == 0 {
		return "No notes found."
	}
	var b strings.Builder
	b.WriteString("📋 *Existing cards found:*\n\n")
	for i, n := range notes {
		fmt.Fprintf(&b, "*Card #%d:*\n", i+1)
		fmt.Fprintf(&b, "*ID:* `%d`\n", n.NoteID)
		fmt.Fprintf(&b, "*Front:* %s\n", StripHTML(n.Front))
		fmt.Fprintf(&b, "*Back:* %s\n\n", StripHTML(n.Back))
	}
	return b.String()
}

// FormatPreview renders the final pre-commit card preview.
func FormatPreview(r *Record, template string) string {
	var meanings strings.Builder
	for _, m := range r.Meanings {
		fmt.Fprintf(&meanings, "• %s\n", m)
	}
	return fmt.Sprintf(`📋 CARD PREVIEW

🎴 Type: %s
📝 Front: %s

📖 Back:
%s
💬 %s

🏥 %s

Create this card in Anki?`,
		template,
		RenderFront(r),
		meanings.String(),
		orNA(r.ExampleCommon),
		orNA(r.ExampleMedical))
}

// FormatEditMenu renders the edit-menu preview: at most three meanings
// plus a count of the rest, so long cards stay readable on a phone.
func FormatEditMenu(r *Record) string {
	var meanings strings.Builder
	shown := r.Meanings
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for i, m := range shown {
		fmt.Fprintf(&meanings, "  %d. %s\n", i+1, m)
	}
	if rest := len(r.Meanings) - len(shown); rest > 0 {
		fmt.Fprintf(&meanings, "  ... and %d more\n", rest)
	}
	return fmt.Sprintf(`✏️ *EDIT CARD - PREVIEW*

📝 *Word:* %s
🔊 *Pronunciation:* %s

📖 *Meanings:*
%s
💬 *Common sentence:*
%s

🏥 *Medical sentence:*
%s

*Pick the field to change:*
(Send /skip while editing a field to leave it unchanged)`,
		r.Word,
		orNA(r.Pronunciation),
		meanings.String(),
		orNA(r.ExampleCommon),
		orNA(r.ExampleMedical))
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`")

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// FormatCommitSuccess renders the final confirmation after a card was
// created or updated. User-entered text is escaped so Telegram's
// markdown parser cannot choke on it.
func FormatCommitSuccess(r *Record, deck, template string, updated bool) string {
	action := "CREATED"
	if updated {
		action = "UPDATED"
	}
	var meanings strings.Builder
	for _, m := range r.Meanings {
		fmt.Fprintf(&meanings, "• %s\n", escapeMarkdown(m))
	}
	return fmt.Sprintf(`🎉 *CARD %s*

📝 *Word:* %s
🔊 *Pronunciation:* %s
📚 *Deck:* %s
🎴 *Type:* %s

*FINAL CONTENT:*
%s
💬 _%s_
🏥 _%s_

Ready to study! 🚀`,
		action,
		escapeMarkdown(r.Word),
		escapeMarkdown(orNA(r.Pronunciation)),
		deck,
		template,
		meanings.String(),
		escapeMarkdown(orNA(r.ExampleCommon)),
		escapeMarkdown(orNA(r.ExampleMedical)))
}
