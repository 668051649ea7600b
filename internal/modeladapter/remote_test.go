package modeladapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithToolsReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello world"}},
			},
		})
	}))
	defer srv.Close()

	a := NewRemote(RemoteConfig{BaseURL: srv.URL, APIKey: "test-key", GenModel: "gen"}, zerolog.Nop())
	out, err := a.GenerateWithTools(context.Background(), []Message{{Role: "user"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestEmbedSetsDim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3, 0.4}},
			},
		})
	}))
	defer srv.Close()

	a := NewRemote(RemoteConfig{BaseURL: srv.URL, EmbedModel: "embed"}, zerolog.Nop())
	vec, err := a.Embed(context.Background(), "some text")
	require.NoError(t, err)
	require.Len(t, vec, 4)
	require.Equal(t, 4, a.Dim())
}

func TestGenerateWithToolsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	a := NewRemote(RemoteConfig{BaseURL: srv.URL}, zerolog.Nop())
	_, err := a.GenerateWithTools(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestLocalAdapterNotImplemented(t *testing.T) {
	a := NewLocal()
	_, err := a.GenerateWithTools(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrLocalNotImplemented)
	_, err = a.Embed(context.Background(), "x")
	require.ErrorIs(t, err, ErrLocalNotImplemented)
	require.NoError(t, a.Dispose())
}
