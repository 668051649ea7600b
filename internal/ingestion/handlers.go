package ingestion

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/claude-mem/memoryd/internal/retrieval"
	"github.com/claude-mem/memoryd/internal/router"
	"github.com/claude-mem/memoryd/internal/sanitize"
	"github.com/claude-mem/memoryd/internal/store"
)

// stripPrivate strips <private>...</private> regions from tool
// responses before they reach the model or the store, same as prompts.
var stripPrivate = sanitize.StripPrivateTags

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         Version,
		"uptimeSeconds":   int(time.Since(s.startedAt).Seconds()),
		"pendingMessages": s.Router.Pending(),
	})
}

type promptRequest struct {
	ExternalSessionID string `json:"externalSessionId"`
	Prompt             string `json:"prompt"`
	Cwd                string `json:"cwd"`
}

// handlePrompt creates or continues a session. A concurrent first-prompt
// race collapses onto one session row (store.CreateOrGetSession's
// INSERT-OR-IGNORE semantics); the loser still gets a valid promptNumber
// from IncrementPromptCounter.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body promptRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ExternalSessionID == "" || body.Cwd == "" {
		writeError(w, http.StatusBadRequest, "externalSessionId and cwd are required")
		return
	}

	cleaned := stripPrivate(body.Prompt)
	if !sanitize.HasNonWhitespaceContent(cleaned) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
		return
	}

	project := deriveProject(body.Cwd)
	session, _, err := s.Store.CreateOrGetSession(body.ExternalSessionID, project, cleaned)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	count, err := s.Store.IncrementPromptCounter(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.Store.SavePrompt(&store.UserPrompt{
		ExternalSessionID: body.ExternalSessionID,
		PromptNumber:      count,
		PromptText:        cleaned,
	}); err != nil {
		s.Log.Warn().Err(err).Msg("prompt: failed to persist raw prompt")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "stored",
		"externalSessionId": body.ExternalSessionID,
		"promptNumber":      count,
	})
}

type observationRequest struct {
	ExternalSessionID string `json:"externalSessionId"`
	ToolName           string `json:"toolName"`
	ToolInput          string `json:"toolInput"`
	ToolResponse       string `json:"toolResponse"`
	Cwd                string `json:"cwd"`
}

// handleObservation sanitizes the tool response and enqueues a router
// Observation message. Hook adapters are fire-and-forget: this handler
// never blocks on model inference.
func (s *Server) handleObservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body observationRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ExternalSessionID == "" || body.ToolName == "" {
		writeError(w, http.StatusBadRequest, "externalSessionId and toolName are required")
		return
	}

	if s.SkipTools[body.ToolName] {
		writeJSON(w, http.StatusOK, map[string]any{"status": "skipped"})
		return
	}

	s.Router.Enqueue(router.Observation{
		ExternalSessionID: body.ExternalSessionID,
		ToolName:           body.ToolName,
		ToolInput:          body.ToolInput,
		ToolResponse:       stripPrivate(body.ToolResponse),
		Cwd:                body.Cwd,
	})

	writeJSON(w, http.StatusOK, map[string]any{"status": "queued"})
}

type summaryRequest struct {
	ExternalSessionID    string `json:"externalSessionId"`
	TranscriptPath       string `json:"transcriptPath"`
	LastUserMessage      string `json:"lastUserMessage"`
	LastAssistantMessage string `json:"lastAssistantMessage"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body summaryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ExternalSessionID == "" {
		writeError(w, http.StatusBadRequest, "externalSessionId is required")
		return
	}

	session, err := s.Store.GetSessionByExternalID(body.ExternalSessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	s.Router.Enqueue(router.Summarize{
		ExternalSessionID:    body.ExternalSessionID,
		LastUserMessage:      body.LastUserMessage,
		LastAssistantMessage: body.LastAssistantMessage,
	})

	writeJSON(w, http.StatusOK, map[string]any{"status": "queued"})
}

type completeRequest struct {
	ExternalSessionID string `json:"externalSessionId"`
	Reason            string `json:"reason"`
}

// handleComplete is idempotent: calling it twice on the same session both
// times yields status "completed", no error.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body completeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ExternalSessionID == "" {
		writeError(w, http.StatusBadRequest, "externalSessionId is required")
		return
	}

	session, err := s.Store.GetSessionByExternalID(body.ExternalSessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	s.Router.Enqueue(router.Complete{ExternalSessionID: body.ExternalSessionID, Reason: body.Reason})

	writeJSON(w, http.StatusOK, map[string]any{"status": "queued"})
}

// handleContext never returns a hard error for a failed injection: on a
// Store failure it still answers 200 with an empty context, so the host
// session continues (§7's user-visible-failure rule).
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	project := r.URL.Query().Get("project")
	if project == "" {
		writeError(w, http.StatusBadRequest, "project is required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	format := r.URL.Query().Get("format")

	var cwdFiles []string
	if cwd := r.URL.Query().Get("cwd"); cwd != "" {
		cwdFiles = []string{cwd}
	}

	result, err := retrieval.GetContext(s.Store, retrieval.ContextParams{
		Project:  project,
		Limit:    limit,
		Format:   format,
		CwdFiles: cwdFiles,
	})
	if err != nil {
		s.Log.Warn().Err(err).Str("project", project).Msg("context: retrieval failed, returning empty context")
		writeJSON(w, http.StatusOK, map[string]any{
			"context":          "",
			"observationCount": 0,
			"summaryCount":     0,
			"typeCounts":       map[string]int{},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"context":          result.Context,
		"observationCount": result.ObservationCount,
		"summaryCount":     result.SummaryCount,
		"typeCounts":       result.TypeCounts,
	})
}

func deriveProject(cwd string) string {
	clean := strings.TrimRight(cwd, "/")
	if clean == "" {
		return cwd
	}
	return filepath.Base(clean)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
