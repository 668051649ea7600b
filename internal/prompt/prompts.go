package prompt

import (
	"fmt"
	"strings"
)

const (
	toolInputPreviewLen    = 1000
	toolResponsePreviewLen = 500
	summaryFallbackLen     = 500
)

// SystemPrompt declares the observer-only stance: the model records what
// happened, it does not act. Mirrors the donor's terse, enumerated-rules
// prompt style (pkg/extraction.SystemPrompt) adapted to the observation
// domain.
const SystemPrompt = `You are a background observer for a coding session. You do not take actions; you only record what just happened by calling one of the provided tools.

Kinds, pick the closest match:
- decision: a deliberate choice between alternatives
- bugfix: a defect was found and corrected
- feature: new capability was added
- refactor: structure changed, behavior did not
- discovery: something about the codebase was learned
- change: none of the above fit

Good observations are specific ("switched the cache eviction policy from LRU to LFU because hit rate dropped under bursty load"). Bad observations restate the tool call ("edited a file").

Keep title to 80 characters or fewer and narrative to 200 words or fewer.`

// BuildObservationPrompt assembles the user-turn prompt for a single tool
// invocation. Truncation lengths per the observation-prompt contract.
func BuildObservationPrompt(toolName, toolInput, toolResponse string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tool: %s\n\n", toolName)
	sb.WriteString("Input:\n")
	sb.WriteString(firstN(toolInput, toolInputPreviewLen))
	sb.WriteString("\n\nResponse:\n")
	sb.WriteString(firstN(toolResponse, toolResponsePreviewLen))
	sb.WriteString("\n\nIf this is worth recording, call create_observation. Otherwise, reply with no tool call.")
	return sb.String()
}

// BuildSummaryPrompt assembles the user-turn prompt asking the model to
// summarize the session so far.
func BuildSummaryPrompt(lastUserMessage, lastAssistantMessage string) string {
	var sb strings.Builder
	sb.WriteString("Last user message:\n")
	sb.WriteString(lastUserMessage)
	if lastAssistantMessage != "" {
		sb.WriteString("\n\nLast assistant message:\n")
		sb.WriteString(lastAssistantMessage)
	}
	sb.WriteString("\n\nCall create_summary to summarize this session so far.")
	return sb.String()
}

// FirstN truncates s to at most n runes, exported for the Message Router's
// fallback-summary path (§4.4: completed = firstN(response, 500)).
func FirstN(s string, n int) string { return firstN(s, n) }

func firstN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SummaryFallbackLen is the fallback-summary truncation length the Message
// Router applies when the model returns no parsed tool call.
const SummaryFallbackLen = summaryFallbackLen
