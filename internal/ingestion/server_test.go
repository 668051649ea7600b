package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/claude-mem/memoryd/internal/modeladapter"
	"github.com/claude-mem/memoryd/internal/router"
	"github.com/claude-mem/memoryd/internal/store"
)

// stubAdapter is a deterministic modeladapter.Adapter: GenerateWithTools
// always returns the fixed tool-call JSON a test configures, Embed returns
// a fixed-dim zero vector.
type stubAdapter struct {
	generateOutput string
	dim            int
}

func (a *stubAdapter) GenerateWithTools(context.Context, []modeladapter.Message, []modeladapter.ToolDefinition) (string, error) {
	return a.generateOutput, nil
}

func (a *stubAdapter) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, a.dim), nil
}

func (a *stubAdapter) Dim() int { return a.dim }

func (a *stubAdapter) Dispose() error { return nil }

func newTestServer(t *testing.T, generateOutput string) (*Server, *store.SQLiteStore) {
	t.Helper()
	log := zerolog.Nop()
	s, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	proc := &router.Processor{Store: s, Adapter: &stubAdapter{generateOutput: generateOutput, dim: 4}, Log: log}
	rt := router.New(context.Background(), proc, log, 0)
	proc.Router = rt

	srv := New("127.0.0.1:0", s, rt, map[string]bool{"TodoRead": true}, log)
	return srv, s
}

func doJSON(t *testing.T, h http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlePrompt_CreatesSession(t *testing.T) {
	srv, s := newTestServer(t, "")

	rec := doJSON(t, srv.handlePrompt, http.MethodPost, "/prompt", promptRequest{
		ExternalSessionID: "sess-1",
		Prompt:            "fix the auth bug",
		Cwd:               "/home/dev/app",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	session, err := s.GetSessionByExternalID("sess-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, "app", session.Project)
}

func TestHandlePrompt_EntirelyPrivateIsIgnored(t *testing.T) {
	srv, s := newTestServer(t, "")

	rec := doJSON(t, srv.handlePrompt, http.MethodPost, "/prompt", promptRequest{
		ExternalSessionID: "sess-private",
		Prompt:            "<private>secret plan</private>",
		Cwd:               "/home/dev/app",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ignored", resp["status"])

	session, err := s.GetSessionByExternalID("sess-private")
	require.NoError(t, err)
	require.Nil(t, session)
}

func TestHandleObservation_SkippedTool(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv.handleObservation, http.MethodPost, "/observation", observationRequest{
		ExternalSessionID: "sess-1",
		ToolName:          "TodoRead",
		ToolInput:         "{}",
		ToolResponse:      "ok",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "skipped", resp["status"])
}

func TestHandleObservation_StoresOnValidToolCall(t *testing.T) {
	toolCall := `{"name":"create_observation","arguments":{"type":"feature","title":"Added X","narrative":"did the thing"}}`
	srv, s := newTestServer(t, toolCall)

	_, _, err := s.CreateOrGetSession("sess-1", "app", "add feature")
	require.NoError(t, err)

	rec := doJSON(t, srv.handleObservation, http.MethodPost, "/observation", observationRequest{
		ExternalSessionID: "sess-1",
		ToolName:          "Edit",
		ToolInput:         `{"file_path":"/p/app/src/a.ts"}`,
		ToolResponse:      "ok",
		Cwd:               "/p/app",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	srv.Router.Shutdown()

	observations, err := s.GetRecentObservations("app", 10)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	require.Equal(t, "Added X", observations[0].Title)
	require.Equal(t, []string{"/p/app/src/a.ts"}, observations[0].FilesModified)

	require.Eventually(t, func() bool {
		candidates, err := s.GetCandidateObservations(10, "")
		return err == nil && len(candidates) == 1 && candidates[0].HasEmbedding && len(candidates[0].Embedding) == 4*4
	}, time.Second, 5*time.Millisecond)
}

func TestHandleComplete_UnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv.handleComplete, http.MethodPost, "/complete", completeRequest{ExternalSessionID: "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleContext_EmptyStoreReturnsEmptyContext(t *testing.T) {
	srv, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/context?project=app&limit=10", nil)
	rec := httptest.NewRecorder()
	srv.handleContext(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "", resp["context"])
	require.Equal(t, float64(0), resp["observationCount"])
}

func TestDeriveProject(t *testing.T) {
	require.Equal(t, "app", deriveProject("/home/dev/app"))
	require.Equal(t, "app", deriveProject("/home/dev/app/"))
}
