package advisor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/metalagman/taskflow/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type geminiStub struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
	keys   []string
	reply  string
	status int
}

func (s *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.bodies = append(s.bodies, string(body))
	s.keys = append(s.keys, r.Header.Get("x-goog-api-key"))
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if s.status != 0 {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":` + s.reply + `}]},"finishReason":"STOP"}]}`))
}

func newGeminiTestAdvisor(t *testing.T, stub *geminiStub) Advisor {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	a, err := New(context.Background(), Config{
		Provider:   ProviderGemini,
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	require.True(t, a.Enabled())
	return a
}

func TestGeminiEnhance(t *testing.T) {
	t.Parallel()

	stub := &geminiStub{reply: `"{\"description\":\"Summarise findings\",\"priority\":\"medium\",\"tags\":[\"work\",\"docs\"]}"`}
	a := newGeminiTestAdvisor(t, stub)

	s, err := a.Enhance(context.Background(), "Write report")
	require.NoError(t, err)
	assert.Equal(t, "Summarise findings", s.Description)
	assert.Equal(t, task.PriorityMedium, s.Priority)
	assert.Equal(t, []string{"work", "docs"}, s.Tags)

	require.Len(t, stub.paths, 1)
	assert.True(t, strings.HasSuffix(stub.paths[0], "models/"+defaultGeminiModel+":generateContent"), stub.paths[0])
	assert.Equal(t, "test-key", stub.keys[0])
	assert.Contains(t, stub.bodies[0], "application/json")
	assert.Contains(t, stub.bodies[0], "Write report")
}

func TestGeminiDailyInsight(t *testing.T) {
	t.Parallel()

	stub := &geminiStub{reply: `"Tackle the report before lunch."`}
	a := newGeminiTestAdvisor(t, stub)

	assert.Equal(t, "Tackle the report before lunch.", a.DailyInsight(context.Background(), []string{"Write report"}))
	assert.NotContains(t, stub.bodies[0], "responseSchema")
}

func TestGeminiFailures(t *testing.T) {
	t.Parallel()

	stub := &geminiStub{status: http.StatusInternalServerError}
	a := newGeminiTestAdvisor(t, stub)

	_, err := a.Enhance(context.Background(), "Write report")
	require.Error(t, err)
	assert.Equal(t, ErrorInsight, a.DailyInsight(context.Background(), []string{"Write report"}))
}
