package anki

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnect answers AnkiConnect actions from a canned table and
// records every request it sees.
type fakeConnect struct {
	t        *testing.T
	answers  map[string]string
	requests []map[string]any
}

func (f *fakeConnect) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.requests = append(f.requests, req)

		action, _ := req["action"].(string)
		answer, ok := f.answers[action]
		if !ok {
			answer = `{"result": null, "error": "unsupported action"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(answer))
	}
}

func newTestClient(t *testing.T, answers map[string]string) (*Client, *fakeConnect) {
	fake := &fakeConnect{t: t, answers: answers}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewClient(Config{URL: srv.URL}, slog.Default()), fake
}

func TestProbe(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"version": `{"result": 6, "error": null}`,
	})
	assert.NoError(t, client.Probe(context.Background()))
	assert.Equal(t, "version", fake.requests[0]["action"])
	assert.Equal(t, float64(6), fake.requests[0]["version"])
}

func TestProbeUnreachable(t *testing.T) {
	client := NewClient(Config{URL: "http://127.0.0.1:1"}, slog.Default())
	err := client.Probe(context.Background())

	var connErr *ConnectivityError
	assert.ErrorAs(t, err, &connErr)
}

func TestAddNote(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"version": `{"result": 6, "error": null}`,
		"addNote": `{"result": 1496198395707, "error": null}`,
	})

	id, err := client.AddNote(context.Background(), "deck_step1", "basic_card", "run (/ran/)", "• correr<br>")
	require.NoError(t, err)
	assert.Equal(t, int64(1496198395707), id)

	// probe first, then the mutation
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "version", fake.requests[0]["action"])
	assert.Equal(t, "addNote", fake.requests[1]["action"])

	params := fake.requests[1]["params"].(map[string]any)
	note := params["note"].(map[string]any)
	assert.Equal(t, "0 USA::STEP 1", note["deckName"])
	assert.Equal(t, "Basic", note["modelName"])
	assert.Equal(t, false, note["options"].(map[string]any)["allowDuplicate"])

	fields := note["fields"].(map[string]any)
	assert.Equal(t, "run (/ran/)", fields["Front"])
	assert.Equal(t, "• correr<br>", fields["Back"])
}

func TestAddNoteNullResultIsDuplicate(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"version": `{"result": 6, "error": null}`,
		"addNote": `{"result": null, "error": null}`,
	})

	_, err := client.AddNote(context.Background(), "deck_step1", "basic_card", "f", "b")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAddNoteStoreError(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"version": `{"result": 6, "error": null}`,
		"addNote": `{"result": null, "error": "model was not found: Fancy"}`,
	})

	_, err := client.AddNote(context.Background(), "deck_step1", "Fancy", "f", "b")

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Contains(t, storeErr.Message, "model was not found")
}

func TestUpdateNoteFields(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"updateNoteFields": `{"result": null, "error": null}`,
	})

	err := client.UpdateNoteFields(context.Background(), 42, "front", "back")
	require.NoError(t, err)

	note := fake.requests[0]["params"].(map[string]any)["note"].(map[string]any)
	assert.Equal(t, float64(42), note["id"])
}

func TestFindNotes(t *testing.T) {
	client, fake := newTestClient(t, map[string]string{
		"findNotes": `{"result": [42, 43], "error": null}`,
	})

	ids := client.FindNotes(context.Background(), "deck_step1", "tired")
	assert.Equal(t, []int64{42, 43}, ids)

	query := fake.requests[0]["params"].(map[string]any)["query"].(string)
	assert.Equal(t, `deck:"0 USA::STEP 1" "tired"`, query)
}

func TestFindNotesErrorYieldsEmptyList(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"findNotes": `{"result": null, "error": "deck was not found"}`,
	})
	assert.Empty(t, client.FindNotes(context.Background(), "nope", "tired"))
}

func TestFindNotesUnreachableYieldsEmptyList(t *testing.T) {
	client := NewClient(Config{URL: "http://127.0.0.1:1"}, slog.Default())
	assert.Empty(t, client.FindNotes(context.Background(), "deck_step1", "tired"))
}

func TestNotesInfo(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"notesInfo": `{"result": [{"noteId": 42, "modelName": "Basic", "fields": {"Front": {"value": "tired (/taird/)", "order": 0}, "Back": {"value": "• cansado<br>", "order": 1}}}], "error": null}`,
	})

	notes := client.NotesInfo(context.Background(), []int64{42})
	require.Len(t, notes, 1)
	assert.Equal(t, int64(42), notes[0].NoteID)
	assert.Equal(t, "tired (/taird/)", notes[0].Fields["Front"].Value)
	assert.Equal(t, "• cansado<br>", notes[0].Fields["Back"].Value)
}

func TestNotesInfoErrorYieldsEmptyList(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"notesInfo": `{"result": null, "error": "boom"}`,
	})
	assert.Empty(t, client.NotesInfo(context.Background(), []int64{1}))
}

func TestResolveTemplateFallback(t *testing.T) {
	assert.Equal(t, "Basic", ResolveTemplate("unknown"))
	assert.Equal(t, "Basic (and reversed card)", ResolveTemplate("reversed_card"))
}

func TestResolveDeckPassThrough(t *testing.T) {
	assert.Equal(t, "My Custom Deck", ResolveDeck("My Custom Deck"))
	assert.Equal(t, "0 USA::Self-Learning", ResolveDeck("deck_self_learning"))
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Action: "addNote", Message: "boom"}
	assert.Equal(t, "AnkiConnect addNote error: boom", err.Error())
	assert.False(t, errors.Is(err, ErrDuplicate))
}
