package openaiapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientComplete_SendsExpectedPayloadAndParsesOutput(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("unmarshal request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"error": {"code": "", "message": ""},
			"output": [
				{
					"type": "message",
					"role": "assistant",
					"content": [
						{"type": "output_text", "text": "  Ship the small things first.  ", "annotations": []}
					]
				}
			]
		}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Model:      "gpt-4o-mini",
		BaseURL:    srv.URL,
		APIKey:     "test-api-key",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), CompletionRequest{
		Instructions: "One sentence.",
		Input:        `["Write report"]`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ship the small things first.", out)

	assert.Equal(t, "Bearer test-api-key", gotAuth)
	assert.Equal(t, "/responses", gotPath)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.Equal(t, "One sentence.", gotBody["instructions"])
	assert.Equal(t, `["Write report"]`, gotBody["input"])
}

func TestClientComplete_EmptyOutputIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"code": "", "message": ""}, "output": []}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-4o-mini", BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), CompletionRequest{Input: "{}"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClientComplete_ReturnsServerErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-4o-mini", BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), CompletionRequest{Input: "{}"})
	require.Error(t, err)
}

func TestNewClient_RequiresModelAndKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{APIKey: "k"})
	require.Error(t, err)

	_, err = NewClient(Config{Model: "gpt-4o-mini"})
	require.Error(t, err)
}
