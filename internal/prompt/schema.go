// Package prompt builds the observer-role prompts sent to the model adapter
// and parses its output back into observation/summary tool calls. Grounded
// on the donor's pkg/extraction (prompt construction, tolerant JSON repair)
// and pkg/agent (tool/message wire shapes), rewritten for the observation
// and summary schemas this daemon uses instead of entity/relation extraction.
package prompt

import "github.com/claude-mem/memoryd/internal/modeladapter"

// ObservationArgs is the parsed payload of a create_observation tool call.
type ObservationArgs struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Narrative string  `json:"narrative"`
	Facts    []string `json:"facts,omitempty"`
	Concepts []string `json:"concepts,omitempty"`
}

// SummaryArgs is the parsed payload of a create_summary tool call.
type SummaryArgs struct {
	Request      string `json:"request,omitempty"`
	Investigated string `json:"investigated,omitempty"`
	Learned      string `json:"learned,omitempty"`
	Completed    string `json:"completed,omitempty"`
	NextSteps    string `json:"nextSteps,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ObservationKinds is the closed enumeration §4.3 pins create_observation's
// type field to.
var ObservationKinds = []string{"decision", "bugfix", "feature", "refactor", "discovery", "change"}

// ConceptTags is the closed enumeration create_observation's concepts field
// draws from.
var ConceptTags = []string{
	"how-it-works", "why-it-exists", "what-changed",
	"problem-solution", "gotcha", "pattern", "trade-off",
}

// ObservationTool is the JSON-Schema tool definition offered to the model
// for recording an observation.
var ObservationTool = modeladapter.ToolDefinition{
	Type: "function",
	Function: modeladapter.ToolFunctionSchema{
		Name:        "create_observation",
		Description: "Record a single observation about what just happened in this coding session.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type":      map[string]any{"type": "string", "enum": ObservationKinds},
				"title":     map[string]any{"type": "string", "description": "Short label, at most 80 characters."},
				"subtitle":  map[string]any{"type": "string"},
				"narrative": map[string]any{"type": "string", "description": "At most 200 words."},
				"facts":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"concepts":  map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": ConceptTags}},
			},
			"required": []string{"type", "title", "narrative"},
		},
	},
}

// SummaryTool is the JSON-Schema tool definition offered to the model for
// recording a session summary.
var SummaryTool = modeladapter.ToolDefinition{
	Type: "function",
	Function: modeladapter.ToolFunctionSchema{
		Name:        "create_summary",
		Description: "Summarize the session so far.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"request":      map[string]any{"type": "string"},
				"investigated": map[string]any{"type": "string"},
				"learned":      map[string]any{"type": "string"},
				"completed":    map[string]any{"type": "string"},
				"nextSteps":    map[string]any{"type": "string"},
				"notes":        map[string]any{"type": "string"},
			},
		},
	},
}
