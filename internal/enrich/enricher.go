package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/vocabhub/anki-gateway/internal/card"
)

// UnavailableError means the text-generation call could not complete
// (network, timeout, quota).
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("enrichment service unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// FormatError means the service answered but the payload did not carry
// the expected JSON object.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("enrichment returned malformed output: %s", e.Reason)
}

// Config holds enricher settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enricher asks the text-generation service for a complete word record
type Enricher struct {
	client *openai.Client
	model  string
	apiKey string
	logger *slog.Logger
}

// NewEnricher creates a new enricher
func NewEnricher(cfg Config, logger *slog.Logger) *Enricher {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Enricher{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

const promptTemplate = `I am a Spanish speaker learning English. Provide complete, detailed information about the English word "%s". Respond with the JSON object only, no additional text.

JSON {
    "word": "%s",
    "meanings": "[list of the meanings in Spanish]. Key words or short phrases only, no full sentences",
    "pronunciation": "The simplified phonetic pronunciation in Spanish. Not the official one, but Spanish spelling, for example Hello = /jelou/ or Help = /jelp/",
    "grammar": "The infinitive, verb tenses and most common conjugations (when applicable)",
    "etymology": "The origin and history of the word, something that helps memorize it",
    "example_common": "One example sentence in English, in a general context",
    "example_medical": "One example sentence in English, in a medical context"
}`

// Enrich looks up a single word. There is no retry; the caller
// re-triggers by resubmitting the word.
func (e *Enricher) Enrich(ctx context.Context, word string) (*card.Record, error) {
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptTemplate, word, word),
			},
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &FormatError{Reason: "no choices in response"}
	}

	return ParseRecord(word, resp.Choices[0].Message.Content)
}

// Health reports whether the enricher is configured at all. It never
// calls the service; a live probe would spend tokens.
func (e *Enricher) Health() error {
	if e.apiKey == "" {
		return fmt.Errorf("API key is not configured")
	}
	return nil
}

// meaningsField accepts either a JSON array of strings or a single
// string, which the service produces for single-meaning words.
type meaningsField []string

func (m *meaningsField) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*m = []string{single}
	return nil
}

type recordPayload struct {
	Word           string        `json:"word"`
	Meanings       meaningsField `json:"meanings"`
	Pronunciation  string        `json:"pronunciation"`
	Grammar        string        `json:"grammar"`
	Etymology      string        `json:"etymology"`
	ExampleCommon  string        `json:"example_common"`
	ExampleMedical string        `json:"example_medical"`
}

// ParseRecord validates the service output and converts it into a word
// record. Surrounding code fences are stripped before parsing.
func ParseRecord(word, text string) (*card.Record, error) {
	clean := StripFences(text)
	if clean == "" {
		return nil, &FormatError{Reason: "empty response"}
	}

	var payload recordPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}

	r := &card.Record{
		Word:           payload.Word,
		Meanings:       payload.Meanings,
		Pronunciation:  payload.Pronunciation,
		Grammar:        payload.Grammar,
		Etymology:      payload.Etymology,
		ExampleCommon:  payload.ExampleCommon,
		ExampleMedical: payload.ExampleMedical,
	}
	if r.Word == "" {
		r.Word = word
	}
	return r, nil
}

// StripFences removes markdown code-fence markers the service sometimes
// wraps around the JSON object.
func StripFences(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	return strings.TrimSpace(clean)
}
