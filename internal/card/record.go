package card

import "strings"

// Field names a user can edit from the edit menu. Grammar and etymology
// are shown during lookup but never rendered onto the card, so they are
// not editable.
const (
	FieldWord           = "word"
	FieldPronunciation  = "pronunciation"
	FieldMeanings       = "meanings"
	FieldExampleCommon  = "example_common"
	FieldExampleMedical = "example_medical"
)

// EditableFields lists the editable fields in menu order.
var EditableFields = []string{
	FieldWord,
	FieldPronunciation,
	FieldMeanings,
	FieldExampleCommon,
	FieldExampleMedical,
}

// Record is the structured result of enrichment, used to render a
// note's Front and Back fields.
type Record struct {
	Word           string
	Meanings       []string
	Pronunciation  string
	Grammar        string
	Etymology      string
	ExampleCommon  string
	ExampleMedical string
}

// FieldLabel returns the human-readable label for a field name.
func FieldLabel(field string) string {
	switch field {
	case FieldWord:
		return "word"
	case FieldPronunciation:
		return "pronunciation"
	case FieldMeanings:
		return "meanings (one per line)"
	case FieldExampleCommon:
		return "common example sentence"
	case FieldExampleMedical:
		return "medical example sentence"
	}
	return field
}

// IsEditable reports whether field is one of the editable field names.
func IsEditable(field string) bool {
	for _, f := range EditableFields {
		if f == field {
			return true
		}
	}
	return false
}

// FieldValue returns the current value of a field as display text.
// Meanings are rendered one per line with a leading bullet.
func (r *Record) FieldValue(field string) string {
	switch field {
	case FieldWord:
		return r.Word
	case FieldPronunciation:
		return r.Pronunciation
	case FieldMeanings:
		lines := make([]string, 0, len(r.Meanings))
		for _, m := range r.Meanings {
			lines = append(lines, "• "+m)
		}
		return strings.Join(lines, "\n")
	case FieldExampleCommon:
		return r.ExampleCommon
	case FieldExampleMedical:
		return r.ExampleMedical
	}
	return ""
}

// SetField writes user-entered text into a field. Meanings input is
// split into non-empty lines with any leading bullet marker stripped;
// every other field stores the trimmed raw text.
func (r *Record) SetField(field, text string) {
	text = strings.TrimSpace(text)
	switch field {
	case FieldWord:
		r.Word = text
	case FieldPronunciation:
		r.Pronunciation = text
	case FieldMeanings:
		r.Meanings = SplitMeanings(text)
	case FieldExampleCommon:
		r.ExampleCommon = text
	case FieldExampleMedical:
		r.ExampleMedical = text
	}
}

// SplitMeanings converts free text into the ordered meanings sequence:
// one meaning per non-empty line, leading "- " or "• " markers removed.
func SplitMeanings(text string) []string {
	var meanings []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "• ")
		line = strings.TrimSpace(line)
		if line != "" {
			meanings = append(meanings, line)
		}
	}
	return meanings
}
