package prompt

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ToolCall is a parsed, name-dispatched tool invocation extracted from
// free-form model output.
type ToolCall struct {
	Name string
	Args json.RawMessage
}

// ParseToolCall tolerantly extracts a single JSON object representing a
// tool call from raw model output. Acceptable shapes: an explicitly tagged
// block, a fenced code block containing JSON, or raw JSON — in that order
// of preference, mirroring the donor parser's fenced-then-raw-then-repair
// fallback chain (pkg/extraction/parser.go). It never errors: on any
// mismatch it returns (nil, false) so the caller acknowledges the message
// without storing anything.
func ParseToolCall(raw string) (*ToolCall, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	candidates := make([]string, 0, 3)
	if tagged := extractTaggedBlock(raw); tagged != "" {
		candidates = append(candidates, tagged)
	}
	candidates = append(candidates, stripCodeFence(raw))
	candidates = append(candidates, raw)

	for _, c := range candidates {
		if tc, ok := tryParseJSON(c); ok {
			return tc, true
		}
	}

	// Last resort: regex-repair a single {"name": ..., "arguments": {...}}
	// or flat {"type": ..., ...} shaped object out of noisy surrounding text.
	if tc, ok := tryRepair(raw); ok {
		return tc, true
	}

	return nil, false
}

var taggedBlockPattern = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)

func extractTaggedBlock(s string) string {
	m := taggedBlockPattern.FindStringSubmatch(s)
	if len(m) != 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// rawToolCall is the explicit {name, arguments} envelope. tryParseJSON also
// accepts a flat object without the envelope and infers the tool name from
// its fields.
type rawToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func tryParseJSON(s string) (*ToolCall, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil, false
	}

	var env rawToolCall
	if err := json.Unmarshal([]byte(s), &env); err == nil && env.Name != "" && len(env.Arguments) > 0 {
		if !knownTool(env.Name) {
			return nil, false
		}
		return &ToolCall{Name: env.Name, Args: env.Arguments}, true
	}

	// Flat object without a name/arguments envelope: infer the tool from
	// its required fields (title+narrative => create_observation; anything
	// else with only optional summary fields => create_summary).
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	if _, hasTitle := probe["title"]; hasTitle {
		if _, hasNarrative := probe["narrative"]; hasNarrative {
			return &ToolCall{Name: "create_observation", Args: json.RawMessage(s)}, true
		}
	}
	if looksLikeSummary(probe) {
		return &ToolCall{Name: "create_summary", Args: json.RawMessage(s)}, true
	}
	return nil, false
}

func looksLikeSummary(probe map[string]json.RawMessage) bool {
	summaryFields := map[string]bool{
		"request": true, "investigated": true, "learned": true,
		"completed": true, "nextSteps": true, "notes": true,
	}
	if len(probe) == 0 {
		return false
	}
	for k := range probe {
		if !summaryFields[k] {
			return false
		}
	}
	return true
}

func knownTool(name string) bool {
	return name == "create_observation" || name == "create_summary"
}

var repairObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func tryRepair(raw string) (*ToolCall, bool) {
	m := repairObjectPattern.FindString(raw)
	if m == "" {
		return nil, false
	}
	return tryParseJSON(m)
}

// ParseObservation validates a create_observation tool call's arguments,
// closing the type and concepts enumerations and filtering out any concept
// entry equal to the kind itself (§4.1 invariant 5).
func ParseObservation(tc *ToolCall) (*ObservationArgs, bool) {
	if tc == nil || tc.Name != "create_observation" {
		return nil, false
	}
	var args ObservationArgs
	if err := json.Unmarshal(tc.Args, &args); err != nil {
		return nil, false
	}
	if strings.TrimSpace(args.Title) == "" || strings.TrimSpace(args.Narrative) == "" {
		return nil, false
	}
	if !validKind(args.Type) {
		return nil, false
	}
	args.Concepts = filterConcepts(args.Concepts, args.Type)
	return &args, true
}

// ParseSummary validates a create_summary tool call's arguments. All
// fields are optional; an entirely empty summary is still a valid parse
// (the Message Router stores it as it is).
func ParseSummary(tc *ToolCall) (*SummaryArgs, bool) {
	if tc == nil || tc.Name != "create_summary" {
		return nil, false
	}
	var args SummaryArgs
	if err := json.Unmarshal(tc.Args, &args); err != nil {
		return nil, false
	}
	return &args, true
}

func validKind(k string) bool {
	for _, v := range ObservationKinds {
		if v == k {
			return true
		}
	}
	return false
}

func filterConcepts(concepts []string, kind string) []string {
	out := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c == kind {
			continue
		}
		if !validConcept(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func validConcept(c string) bool {
	for _, v := range ConceptTags {
		if v == c {
			return true
		}
	}
	return false
}
