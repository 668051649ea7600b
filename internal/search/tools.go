// Package search implements the four read-only tools exposed over the
// stdio MCP surface (§4.6): search, timeline, decisions, find_by_file. Tool
// schema shape and handler-per-tool registration are grounded on
// jalfarocode-engram's internal/mcp/mcp.go; the tolerant-but-strict input
// sanitization is project-specific and lives in internal/sanitize.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/claude-mem/memoryd/internal/sanitize"
	"github.com/claude-mem/memoryd/internal/store"
)

const recentPullMultiplier = 5

// searchArgs is the sanitized form of the search tool's arguments.
type searchArgs struct {
	query   string
	kind    string
	project string
	limit   int
}

func runSearch(s *store.SQLiteStore, a searchArgs) (string, error) {
	lexical := sanitize.SanitizeLexicalQuery(a.query)
	if lexical == "" {
		return "No memories found.", nil
	}

	switch a.kind {
	case "summaries":
		results, err := s.SearchSummaries(lexical, a.project, a.limit)
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return fmt.Sprintf("No summaries found for: %q", a.query), nil
		}
		var b strings.Builder
		for i, r := range results {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, summaryText(r))
		}
		return b.String(), nil
	default:
		results, err := s.SearchObservations(store.SearchParams{Query: lexical, ProjectFilter: a.project, Limit: a.limit})
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return fmt.Sprintf("No observations found for: %q", a.query), nil
		}
		var b strings.Builder
		for i, o := range results {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, observationText(o))
		}
		return b.String(), nil
	}
}

// timelineEntry is the common shape timeline merges observations and
// summaries into before sorting by epoch.
type timelineEntry struct {
	epoch int64
	text  string
}

func runTimeline(s *store.SQLiteStore, project string, limit int) (string, error) {
	observations, err := s.GetRecentObservations(project, limit)
	if err != nil {
		return "", err
	}
	summaries, err := s.GetRecentSummaries(project, limit)
	if err != nil {
		return "", err
	}

	entries := make([]timelineEntry, 0, len(observations)+len(summaries))
	for _, o := range observations {
		entries = append(entries, timelineEntry{epoch: o.CreatedAt, text: observationText(o)})
	}
	for _, sum := range summaries {
		entries = append(entries, timelineEntry{epoch: sum.CreatedAt, text: summaryText(sum)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].epoch > entries[j].epoch })
	if len(entries) > limit {
		entries = entries[:limit]
	}

	if len(entries) == 0 {
		return "No timeline entries found.", nil
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, e.text)
	}
	return b.String(), nil
}

func runDecisions(s *store.SQLiteStore, project string, limit int) (string, error) {
	observations, err := s.GetRecentObservations(project, limit*recentPullMultiplier)
	if err != nil {
		return "", err
	}

	decisions := make([]*store.Observation, 0, limit)
	for _, o := range observations {
		if o.Kind == store.KindDecision {
			decisions = append(decisions, o)
		}
		if len(decisions) == limit {
			break
		}
	}

	if len(decisions) == 0 {
		return "No decisions found.", nil
	}
	var b strings.Builder
	for i, o := range decisions {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, observationText(o))
	}
	return b.String(), nil
}

func runFindByFile(s *store.SQLiteStore, file string, limit int) (string, error) {
	clean := sanitize.SanitizeString(file, sanitize.MaxStringLength)
	if clean == "" {
		return "No observations found.", nil
	}

	candidates, err := s.FindObservationsByFile(clean, sanitize.MaxLimit)
	if err != nil {
		return "", err
	}

	matched := make([]*store.Observation, 0, limit)
	for _, o := range candidates {
		if containsSubstring(o.FilesRead, clean) || containsSubstring(o.FilesModified, clean) {
			matched = append(matched, o)
		}
		if len(matched) == limit {
			break
		}
	}

	if len(matched) == 0 {
		return fmt.Sprintf("No observations touching file: %q", file), nil
	}
	var b strings.Builder
	for i, o := range matched {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, observationText(o))
	}
	return b.String(), nil
}

func containsSubstring(paths []string, needle string) bool {
	for _, p := range paths {
		if strings.Contains(p, needle) {
			return true
		}
	}
	return false
}

func observationText(o *store.Observation) string {
	return fmt.Sprintf("#%d [%s] %s — %s (project: %s)", o.ID, o.Kind, o.Title, truncate(o.Narrative, 300), o.Project)
}

func summaryText(s *store.Summary) string {
	body := s.Completed
	if body == "" {
		body = s.Request
	}
	return fmt.Sprintf("#%d summary — %s (project: %s)", s.ID, truncate(body, 300), s.Project)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
