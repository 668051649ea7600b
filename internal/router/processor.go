package router

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/claude-mem/memoryd/internal/modeladapter"
	"github.com/claude-mem/memoryd/internal/prompt"
	"github.com/claude-mem/memoryd/internal/store"
)

// duplicateWindow is the near-duplicate suppression window for observations
// with the same title in the same project.
const duplicateWindow = time.Hour

// defaultRetentionCap bounds how many observations are kept per project after each
// successful store; 0 disables enforcement (the original behavior this
// daemon's spec describes, which is unbounded by default).
const defaultRetentionCap = 0

// Processor implements the per-message processing contract: session
// resolution, model invocation, tool-call parsing, duplicate suppression,
// and persistence. Grounded on pkg/memory.Extractor's ProcessMessage shape
// (LLM call, then store), generalized to the four message variants.
type Processor struct {
	Store         *store.SQLiteStore
	Adapter       modeladapter.Adapter
	Router        *Router
	Log           zerolog.Logger
	RetentionCap  int
}

func (p *Processor) Process(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case Observation:
		p.processObservation(ctx, m)
	case Summarize:
		p.processSummarize(ctx, m)
	case Complete:
		p.processComplete(ctx, m)
	case Embed:
		p.processEmbed(ctx, m)
	default:
		p.Log.Warn().Msg("router: unknown message type")
	}
}

func (p *Processor) processObservation(ctx context.Context, m Observation) {
	session, err := p.Store.GetSessionByExternalID(m.ExternalSessionID)
	if err != nil {
		p.Log.Info().Str("session", m.ExternalSessionID).Msg("observation: unknown session, skipping")
		return
	}
	if session == nil {
		p.Log.Info().Str("session", m.ExternalSessionID).Msg("observation: unknown session, skipping")
		return
	}

	promptNumber := session.PromptCounter
	if promptNumber == 0 {
		promptNumber = 1
	}

	userPrompt := prompt.BuildObservationPrompt(m.ToolName, m.ToolInput, m.ToolResponse)
	raw, err := p.Adapter.GenerateWithTools(ctx, []modeladapter.Message{
		{Role: "system", Content: strPtr(prompt.SystemPrompt)},
		{Role: "user", Content: strPtr(userPrompt)},
	}, []modeladapter.ToolDefinition{prompt.ObservationTool})
	if err != nil {
		p.Log.Error().Err(err).Msg("observation: model call failed")
		return
	}

	args, ok := parseObservationOutput(raw)
	if !ok {
		p.Log.Debug().Msg("observation: no tool call parsed, acknowledging with nothing stored")
		return
	}

	filesRead, filesModified := deriveFilePaths(m.ToolName, m.ToolInput)

	if dup, err := p.Store.FindSimilarObservation(session.Project, args.Title, duplicateWindow); err == nil && dup != nil {
		p.Log.Debug().Str("title", args.Title).Msg("observation: duplicate suppressed")
		return
	}

	obs := &store.Observation{
		SessionRef:    m.ExternalSessionID,
		Project:       session.Project,
		Kind:          store.ObservationKind(args.Type),
		Title:         args.Title,
		Subtitle:      args.Subtitle,
		Narrative:     args.Narrative,
		Facts:         args.Facts,
		Concepts:      args.Concepts,
		FilesRead:     filesRead,
		FilesModified: filesModified,
		PromptNumber:  promptNumber,
		CreatedAt:     time.Now().Unix(),
	}

	id, err := p.Store.StoreObservation(obs)
	if err != nil {
		p.Log.Error().Err(err).Msg("observation: store failed")
		return
	}

	if p.RetentionCap > 0 {
		if _, err := p.Store.EnforceRetention(session.Project, p.RetentionCap); err != nil {
			p.Log.Warn().Err(err).Msg("observation: retention enforcement failed")
		}
	}

	p.Router.Enqueue(Embed{ObservationID: id, Title: args.Title, Narrative: args.Narrative})
}

func (p *Processor) processSummarize(ctx context.Context, m Summarize) {
	session, err := p.Store.GetSessionByExternalID(m.ExternalSessionID)
	if err != nil {
		p.Log.Info().Str("session", m.ExternalSessionID).Msg("summarize: unknown session, skipping")
		return
	}
	if session == nil {
		p.Log.Info().Str("session", m.ExternalSessionID).Msg("summarize: unknown session, skipping")
		return
	}

	userPrompt := prompt.BuildSummaryPrompt(m.LastUserMessage, m.LastAssistantMessage)
	raw, err := p.Adapter.GenerateWithTools(ctx, []modeladapter.Message{
		{Role: "system", Content: strPtr(prompt.SystemPrompt)},
		{Role: "user", Content: strPtr(userPrompt)},
	}, []modeladapter.ToolDefinition{prompt.SummaryTool})

	var args *prompt.SummaryArgs
	if err == nil {
		if tc, ok := prompt.ParseToolCall(raw); ok {
			args, _ = prompt.ParseSummary(tc)
		}
	} else {
		p.Log.Error().Err(err).Msg("summarize: model call failed")
	}
	if args == nil {
		args = &prompt.SummaryArgs{
			Request:   m.LastUserMessage,
			Completed: prompt.FirstN(m.LastAssistantMessage, prompt.SummaryFallbackLen),
		}
	}

	sum := &store.Summary{
		SessionRef:   m.ExternalSessionID,
		Project:      session.Project,
		Request:      args.Request,
		Investigated: args.Investigated,
		Learned:      args.Learned,
		Completed:    args.Completed,
		NextSteps:    args.NextSteps,
		Notes:        args.Notes,
		PromptNumber: session.PromptCounter,
		CreatedAt:    time.Now().Unix(),
	}
	if _, err := p.Store.StoreSummary(sum); err != nil {
		p.Log.Error().Err(err).Msg("summarize: store failed")
	}
}

func (p *Processor) processComplete(_ context.Context, m Complete) {
	session, err := p.Store.GetSessionByExternalID(m.ExternalSessionID)
	if err != nil {
		p.Log.Info().Str("session", m.ExternalSessionID).Msg("complete: unknown session, skipping")
		return
	}
	if session == nil {
		p.Log.Info().Str("session", m.ExternalSessionID).Msg("complete: unknown session, skipping")
		return
	}
	if err := p.Store.UpdateSessionStatus(session.ID, store.SessionCompleted); err != nil {
		p.Log.Error().Err(err).Msg("complete: update status failed")
	}
}

func (p *Processor) processEmbed(ctx context.Context, m Embed) {
	vec, err := p.Adapter.Embed(ctx, m.Title+"\n"+m.Narrative)
	if err != nil {
		p.Log.Warn().Err(err).Int64("observation", m.ObservationID).Msg("embed: adapter call failed")
		return
	}
	if err := p.Store.UpdateObservationEmbedding(m.ObservationID, vec); err != nil {
		p.Log.Warn().Err(err).Int64("observation", m.ObservationID).Msg("embed: store failed")
	}
}

// parseObservationOutput tries the tolerant JSON tool-call parser first,
// falling back to the legacy XML tag contract.
func parseObservationOutput(raw string) (*prompt.ObservationArgs, bool) {
	if tc, ok := prompt.ParseToolCall(raw); ok {
		if args, ok := prompt.ParseObservation(tc); ok {
			return args, true
		}
	}
	return prompt.ParseObservationXML(raw)
}

// deriveFilePaths applies the deterministic, not-model-driven file-path
// derivation table (§4.4): Edit/Write/MultiEdit/NotebookEdit write to
// filesModified; Read/Grep/Glob/LS (and anything else, by default) read
// into filesRead.
func deriveFilePaths(toolName, toolInput string) (filesRead, filesModified []string) {
	path := extractPath(toolInput)
	if path == "" {
		return nil, nil
	}
	switch toolName {
	case "Edit", "Write", "MultiEdit", "NotebookEdit":
		return nil, []string{path}
	default:
		return []string{path}, nil
	}
}

func extractPath(toolInput string) string {
	var probe map[string]any
	if err := json.Unmarshal([]byte(toolInput), &probe); err != nil {
		return ""
	}
	if v, ok := probe["file_path"].(string); ok {
		return v
	}
	if v, ok := probe["path"].(string); ok {
		return v
	}
	return ""
}

func strPtr(s string) *string { return &s }
