package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claude-mem/memoryd/internal/store"
	"github.com/claude-mem/memoryd/pkg/pool"
)

// candidateMultiplier widens the candidate pull past the final limit so
// scoring has more than `limit` rows to choose from before truncating.
const candidateMultiplier = 4

// ContextParams configures GetContext. CwdFiles/Concepts are
// enrichments beyond the HTTP `?project=&limit=&format=` signature in §6 —
// see ScoreInputs for why they're optional.
type ContextParams struct {
	Project  string
	Limit    int
	Format   string
	CwdFiles []string
	Concepts []string
}

// ContextResult is §4.5 step 5's output.
type ContextResult struct {
	Context          string
	ObservationCount int
	SummaryCount     int
	TypeCounts       map[string]int
}

type scoredObservation struct {
	obs   *store.CandidateObservation
	score float64
}

// GetContext assembles a ranked, formatted context string plus summary
// counts: pull cross-project candidates, score each, sort descending, keep
// the top `limit`, then prepend same-project recent summaries.
func GetContext(s *store.SQLiteStore, p ContextParams) (*ContextResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	candidates, err := s.GetCandidateObservations(limit*candidateMultiplier, "")
	if err != nil {
		return nil, fmt.Errorf("retrieval: get candidate observations: %w", err)
	}

	in := ScoreInputs{Project: p.Project, CwdFiles: p.CwdFiles, Concepts: p.Concepts, Now: time.Now()}
	ranked := make([]scoredObservation, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scoredObservation{obs: c, score: scoreObservation(c, in)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	summaries, err := s.GetRecentSummaries(p.Project, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieval: get recent summaries: %w", err)
	}

	typeCounts := pool.GetMap()
	defer pool.PutMap(typeCounts)
	for _, r := range ranked {
		key := string(r.obs.Kind)
		if v, ok := typeCounts[key]; ok {
			typeCounts[key] = v.(int) + 1
		} else {
			typeCounts[key] = 1
		}
	}
	outCounts := make(map[string]int, len(typeCounts))
	for k, v := range typeCounts {
		outCounts[k] = v.(int)
	}

	return &ContextResult{
		Context:          formatContext(summaries, ranked, p.Project),
		ObservationCount: len(ranked),
		SummaryCount:     len(summaries),
		TypeCounts:       outCounts,
	}, nil
}

// formatContext assembles the plain markdown-like text from §4.5 step 5.
// Only the "full" layout is implemented — format=index is accepted by the
// HTTP handler and produces this same output, per the spec's own note that
// the second format is unobserved in the source (see DESIGN.md).
func formatContext(summaries []*store.Summary, ranked []scoredObservation, currentProject string) string {
	var b strings.Builder

	if len(summaries) > 0 {
		b.WriteString("## Recent Session Summaries\n\n")
		for _, sum := range summaries {
			fmt.Fprintf(&b, "- %s\n", summaryLine(sum))
		}
		b.WriteString("\n")
	}

	if len(ranked) > 0 {
		b.WriteString("## Recent Observations\n\n")
		for _, r := range ranked {
			o := r.obs
			suffix := ""
			if currentProject != "" && o.Project != currentProject {
				suffix = fmt.Sprintf(" [from: %s]", o.Project)
			}
			fmt.Fprintf(&b, "- [%s] %s%s\n", o.Kind, o.Title, suffix)
			if o.Narrative != "" {
				fmt.Fprintf(&b, "  %s\n", o.Narrative)
			}
		}
	}

	return b.String()
}

func summaryLine(s *store.Summary) string {
	switch {
	case s.Completed != "":
		return s.Completed
	case s.Request != "":
		return s.Request
	default:
		return "(empty summary)"
	}
}
