package card

import (
	"regexp"
	"strings"
)

// Markers prefixing the example sentences on the card back. The reverse
// mapping keys on them, so they are part of the note wire format.
const (
	markerCommon  = "💬"
	markerMedical = "🏥"
)

// RenderFront renders the note's Front field: the word, suffixed with
// the pronunciation in parentheses when present.
func RenderFront(r *Record) string {
	front := r.Word
	if r.Pronunciation != "" {
		front += " (" + r.Pronunciation + ")"
	}
	return front
}

// RenderBack renders the note's Back field: one bulleted line per
// meaning, then the example sentences, each only when non-empty.
func RenderBack(r *Record) string {
	var b strings.Builder
	for _, m := range r.Meanings {
		b.WriteString("• ")
		b.WriteString(m)
		b.WriteString("<br>")
	}
	if r.ExampleCommon != "" {
		b.WriteString("<br>" + markerCommon + " <i>" + r.ExampleCommon + "</i>")
	}
	if r.ExampleMedical != "" {
		b.WriteString("<br>" + markerMedical + " <i>" + r.ExampleMedical + "</i>")
	}
	return b.String()
}

var (
	parenRe = regexp.MustCompile(`\((.*?)\)`)
	tagRe   = regexp.MustCompile(`</?(ul|li|i|b)>`)
)

// StripHTML removes the markup AnkiConnect returns in field values and
// turns list items into dashed lines.
func StripHTML(text string) string {
	clean := strings.ReplaceAll(text, "<br>", "\n")
	clean = strings.ReplaceAll(clean, "<li>", "- ")
	clean = tagRe.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// ParseNote is the best-effort reverse mapping from stored note
// contents back to a Record. Pronunciation is taken from parenthesised
// text in the front, bulleted meanings and the marker-prefixed example
// sentences from the back. A back with no bullets becomes a single
// meaning.
func ParseNote(front, back, word string) *Record {
	r := &Record{Word: word}

	if m := parenRe.FindStringSubmatch(front); m != nil {
		r.Pronunciation = m[1]
	}

	for _, line := range strings.Split(back, "<br>") {
		clean := StripHTML(line)
		switch {
		case strings.HasPrefix(clean, "•"):
			if meaning := strings.TrimSpace(strings.TrimPrefix(clean, "•")); meaning != "" {
				r.Meanings = append(r.Meanings, meaning)
			}
		case strings.Contains(clean, markerCommon):
			r.ExampleCommon = strings.TrimSpace(strings.ReplaceAll(clean, markerCommon, ""))
		case strings.Contains(clean, markerMedical):
			r.ExampleMedical = strings.TrimSpace(strings.ReplaceAll(clean, markerMedical, ""))
		}
	}

	if len(r.Meanings) == 0 {
		r.Meanings = []string{StripHTML(back)}
	}
	return r
}
