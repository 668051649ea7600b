package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RemoteConfig configures the HTTP-backed adapter. The wire shape mirrors
// the donor's OpenRouter client (pkg/batch/service.go, pkg/memory/openrouter.go):
// a chat-completions-style POST with model/messages/tools/temperature/
// max_tokens/stream, and a parallel embeddings endpoint. The donor reaches
// the network via a syscall/js fetch shim because its target is a browser;
// this daemon is a native binary, so the same JSON contract is sent over
// net/http instead.
type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	GenModel   string
	EmbedModel string
	Timeout    time.Duration
}

// remoteAdapter is the native net/http implementation of Adapter.
type remoteAdapter struct {
	cfg    RemoteConfig
	client *http.Client
	log    zerolog.Logger
	dim    int
}

// NewRemote builds an Adapter that talks to an OpenRouter-compatible
// chat-completions API.
func NewRemote(cfg RemoteConfig, log zerolog.Logger) Adapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &remoteAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
	Stream      bool             `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   *string    `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *remoteAdapter) GenerateWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (string, error) {
	reqBody := chatRequest{
		Model:       a.cfg.GenModel,
		Messages:    messages,
		Tools:       tools,
		Temperature: 0.2,
		MaxTokens:   1024,
		Stream:      false,
	}
	var resp chatResponse
	if err := a.post(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", fmt.Errorf("modeladapter: generate: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("modeladapter: generate: upstream error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("modeladapter: generate: empty choices")
	}
	msg := resp.Choices[0].Message
	if msg.Content != nil {
		return *msg.Content, nil
	}
	// The assistant loop may reply with a structured tool call instead of
	// plain content; re-encode it as text so the tolerant parser upstream
	// has a single code path to work from.
	if len(msg.ToolCalls) > 0 {
		fn := msg.ToolCalls[0].Function
		b, err := json.Marshal(struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}{Name: fn.Name, Arguments: json.RawMessage(fn.Arguments)})
		if err != nil {
			return "", fmt.Errorf("modeladapter: generate: re-encode tool call: %w", err)
		}
		return string(b), nil
	}
	return "", nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *remoteAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{Model: a.cfg.EmbedModel, Input: text}
	var resp embedResponse
	if err := a.post(ctx, "/embeddings", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("modeladapter: embed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("modeladapter: embed: upstream error: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("modeladapter: embed: empty data")
	}
	vec := resp.Data[0].Embedding
	if a.dim == 0 {
		a.dim = len(vec)
	}
	return vec, nil
}

func (a *remoteAdapter) Dim() int { return a.dim }

func (a *remoteAdapter) Dispose() error {
	a.client.CloseIdleConnections()
	return nil
}

func (a *remoteAdapter) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		a.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("model adapter upstream error")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
