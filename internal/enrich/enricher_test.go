package enrich

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	text := `{
		"word": "run",
		"meanings": ["correr", "funcionar"],
		"pronunciation": "/ran/",
		"grammar": "run, ran, run",
		"etymology": "Old English rinnan",
		"example_common": "I run every morning.",
		"example_medical": "The patient cannot run."
	}`
	r, err := ParseRecord("run", text)
	require.NoError(t, err)
	assert.Equal(t, "run", r.Word)
	assert.Equal(t, []string{"correr", "funcionar"}, r.Meanings)
	assert.Equal(t, "/ran/", r.Pronunciation)
	assert.Equal(t, "The patient cannot run.", r.ExampleMedical)
}

func TestParseRecordStripsFences(t *testing.T) {
	text := "```json\n{\"word\": \"run\", \"meanings\": [\"correr\"]}\n```"
	r, err := ParseRecord("run", text)
	require.NoError(t, err)
	assert.Equal(t, []string{"correr"}, r.Meanings)
}

func TestParseRecordSingleStringMeaning(t *testing.T) {
	r, err := ParseRecord("run", `{"word": "run", "meanings": "correr"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"correr"}, r.Meanings)
}

func TestParseRecordFillsMissingWord(t *testing.T) {
	r, err := ParseRecord("run", `{"meanings": ["correr"]}`)
	require.NoError(t, err)
	assert.Equal(t, "run", r.Word)
}

func TestParseRecordNonJSON(t *testing.T) {
	_, err := ParseRecord("run", "Sorry, I cannot help with that.")

	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseRecordEmpty(t *testing.T) {
	_, err := ParseRecord("run", "``` ```")

	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, StripFences(`{"a": 1}`))
}

func TestEnrichAgainstFakeService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "{\"word\": \"tired\", \"meanings\": [\"cansado\"], \"pronunciation\": \"/taird/\"}"}}]
		}`))
	}))
	defer srv.Close()

	e := NewEnricher(Config{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model"}, slog.Default())
	r, err := e.Enrich(context.Background(), "tired")
	require.NoError(t, err)
	assert.Equal(t, "tired", r.Word)
	assert.Equal(t, "/taird/", r.Pronunciation)
}

func TestEnrichUnreachable(t *testing.T) {
	e := NewEnricher(Config{APIKey: "test", BaseURL: "http://127.0.0.1:1/v1"}, slog.Default())
	_, err := e.Enrich(context.Background(), "tired")

	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestHealth(t *testing.T) {
	e := NewEnricher(Config{APIKey: "k"}, slog.Default())
	assert.NoError(t, e.Health())

	e = NewEnricher(Config{}, slog.Default())
	assert.Error(t, e.Health())
}
