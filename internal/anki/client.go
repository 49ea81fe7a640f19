package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const connectVersion = 6

// templateAliases maps the logical template tokens used in button
// payloads to the note type names Anki actually knows. Unknown
// templates fall back to Basic.
var templateAliases = map[string]string{
	"basic_card":                "Basic",
	"reversed_card":             "Basic (and reversed card)",
	"Basic":                     "Basic",
	"Basic (and reversed card)": "Basic (and reversed card)",
}

// deckAliases maps logical deck tokens to real deck names. Unknown
// decks pass through unchanged.
var deckAliases = map[string]string{
	"deck_step1":           "0 USA::STEP 1",
	"deck_self_learning":   "0 USA::Self-Learning",
	"0 USA::STEP 1":        "0 USA::STEP 1",
	"0 USA::Self-Learning": "0 USA::Self-Learning",
}

// ResolveTemplate maps a logical template token to the store name.
func ResolveTemplate(alias string) string {
	if name, ok := templateAliases[alias]; ok {
		return name
	}
	return "Basic"
}

// ResolveDeck maps a logical deck token to the store name.
func ResolveDeck(alias string) string {
	if name, ok := deckAliases[alias]; ok {
		return name
	}
	return alias
}

// Config holds AnkiConnect client configuration
type Config struct {
	URL            string
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration
}

// Client wraps the AnkiConnect HTTP automation interface
type Client struct {
	url         string
	probeClient *http.Client
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a new AnkiConnect client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout == 0 {
		probeTimeout = 5 * time.Second
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 10 * time.Second
	}
	return &Client{
		url:         cfg.URL,
		probeClient: &http.Client{Timeout: probeTimeout},
		httpClient:  &http.Client{Timeout: requestTimeout},
		logger:      logger,
	}
}

type connectRequest struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type connectResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// do posts one AnkiConnect action and classifies the outcome. A
// transport failure becomes a ConnectivityError, a store-reported error
// string a StoreError. The raw result is returned for the caller to
// decode.
func (c *Client) do(ctx context.Context, client *http.Client, action string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(connectRequest{Action: action, Version: connectVersion, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, &ConnectivityError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(payload))}
	}

	var cr connectResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &StoreError{Action: action, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if cr.Error != nil {
		return nil, &StoreError{Action: action, Message: *cr.Error}
	}
	return cr.Result, nil
}

// Probe checks that the AnkiConnect endpoint is alive
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.do(ctx, c.probeClient, "version", nil)
	return err
}

type noteParams struct {
	Note any `json:"note"`
}

type addNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Options   noteOptions       `json:"options"`
}

type noteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

// AddNote creates a note with duplicate suppression enabled and returns
// the store-assigned note id. The deck and template may be logical
// tokens; they are resolved to store names here. The endpoint is probed
// first so an unreachable store fails before the mutation.
func (c *Client) AddNote(ctx context.Context, deck, template, front, back string) (int64, error) {
	if err := c.Probe(ctx); err != nil {
		return 0, err
	}

	params := noteParams{Note: addNote{
		DeckName:  ResolveDeck(deck),
		ModelName: ResolveTemplate(template),
		Fields:    map[string]string{"Front": front, "Back": back},
		Tags:      []string{"telegram-bot"},
		Options:   noteOptions{AllowDuplicate: false},
	}}

	result, err := c.do(ctx, c.httpClient, "addNote", params)
	if err != nil {
		return 0, err
	}

	// A null result with no error string is AnkiConnect's way of
	// reporting duplicate suppression.
	if string(result) == "null" || len(result) == 0 {
		return 0, ErrDuplicate
	}

	var noteID int64
	if err := json.Unmarshal(result, &noteID); err != nil {
		return 0, &StoreError{Action: "addNote", Message: fmt.Sprintf("unexpected result %s", result)}
	}
	return noteID, nil
}

type updateNote struct {
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
}

// UpdateNoteFields replaces the Front/Back fields of an existing note
func (c *Client) UpdateNoteFields(ctx context.Context, noteID int64, front, back string) error {
	params := noteParams{Note: updateNote{
		ID:     noteID,
		Fields: map[string]string{"Front": front, "Back": back},
	}}
	_, err := c.do(ctx, c.httpClient, "updateNoteFields", params)
	return err
}

// FindNotes searches one deck for a word and returns the matching note
// ids. Store errors yield an empty list; they are logged, not raised.
func (c *Client) FindNotes(ctx context.Context, deck, word string) []int64 {
	query := fmt.Sprintf("deck:%q %q", ResolveDeck(deck), word)
	result, err := c.do(ctx, c.httpClient, "findNotes", map[string]string{"query": query})
	if err != nil {
		c.logger.Warn("findNotes failed", "deck", deck, "error", err)
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(result, &ids); err != nil {
		c.logger.Warn("findNotes returned unexpected result", "deck", deck, "error", err)
		return nil
	}
	return ids
}

// NoteField is one named field value of a stored note
type NoteField struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// NoteInfo is the full stored contents of one note
type NoteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Fields    map[string]NoteField `json:"fields"`
	Tags      []string             `json:"tags"`
}

// NotesInfo fetches the full field contents for the given note ids.
// Store errors yield an empty list; they are logged, not raised.
func (c *Client) NotesInfo(ctx context.Context, ids []int64) []NoteInfo {
	result, err := c.do(ctx, c.httpClient, "notesInfo", map[string][]int64{"notes": ids})
	if err != nil {
		c.logger.Warn("notesInfo failed", "error", err)
		return nil
	}

	var notes []NoteInfo
	if err := json.Unmarshal(result, &notes); err != nil {
		c.logger.Warn("notesInfo returned unexpected result", "error", err)
		return nil
	}
	return notes
}
