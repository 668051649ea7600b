// Package retrieval assembles the ranked, formatted context string the
// ingestion HTTP surface hands back to the host assistant. Grounded on the
// candidate-pull-then-score-then-format shape in
// other_examples/00a4bc2f_thebtf-engram__internal-worker-handlers_context.go.go,
// with the scoring formula taken verbatim from the specification.
package retrieval

import (
	"math"
	"time"

	"github.com/claude-mem/memoryd/internal/store"
)

const (
	defaultHalfLifeDays = 2.0
	ftsWeight           = 1.0
	conceptWeight       = 0.5
	sameProjectBonus    = 0.1
	embeddingBonus      = 0.15
)

// ScoreInputs carries the request-scoped context scoreObservation compares
// each candidate against. Cwd/Concepts are enrichments beyond the bare
// {project, limit, format} context-request signature — nothing else would
// give the fileOverlap/conceptOverlap terms anything to compare against —
// and both default to empty, in which case those terms score 0 exactly as
// they would if the terms were absent.
type ScoreInputs struct {
	Project  string
	CwdFiles []string
	Concepts []string
	Now      time.Time
}

// scoreObservation implements the six-term formula:
//
//	score = recency + kindImportance + similarity + fileOverlap + sameProjectBonus + embeddingBonus
func scoreObservation(o *store.CandidateObservation, in ScoreInputs) float64 {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	ageDays := now.Sub(time.Unix(o.CreatedAt, 0)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	recency := math.Exp(-math.Ln2 * ageDays / defaultHalfLifeDays)

	kindImportance, ok := store.KindImportance[o.Kind]
	if !ok {
		kindImportance = 0.3
	}

	normalizedRank := 0.0
	if o.HasRank {
		normalizedRank = 1 / (1 + math.Abs(o.Rank))
	}
	similarity := normalizedRank*ftsWeight + conceptOverlap(o.Concepts, in.Concepts)*conceptWeight

	overlap := fileOverlap(o.FilesRead, o.FilesModified, in.CwdFiles)

	bonus := 0.0
	if in.Project != "" && o.Project == in.Project {
		bonus += sameProjectBonus
	}
	if o.HasEmbedding {
		bonus += embeddingBonus
	}

	return recency + kindImportance + similarity + overlap + bonus
}

// fileOverlap is |obsFiles ∩ cwdFiles| / |obsFiles|, where obsFiles is the
// union of filesRead and filesModified. 0 if either side is empty.
func fileOverlap(filesRead, filesModified, cwdFiles []string) float64 {
	if len(cwdFiles) == 0 {
		return 0
	}
	obsFiles := make([]string, 0, len(filesRead)+len(filesModified))
	obsFiles = append(obsFiles, filesRead...)
	obsFiles = append(obsFiles, filesModified...)
	if len(obsFiles) == 0 {
		return 0
	}

	cwdSet := make(map[string]bool, len(cwdFiles))
	for _, f := range cwdFiles {
		cwdSet[f] = true
	}
	matches := 0
	for _, f := range obsFiles {
		if cwdSet[f] {
			matches++
		}
	}
	return float64(matches) / float64(len(obsFiles))
}

// conceptOverlap mirrors fileOverlap's ratio shape: |obsConcepts ∩
// filterConcepts| / |obsConcepts|, 0 if either side is empty.
func conceptOverlap(obsConcepts, filterConcepts []string) float64 {
	if len(obsConcepts) == 0 || len(filterConcepts) == 0 {
		return 0
	}
	filterSet := make(map[string]bool, len(filterConcepts))
	for _, c := range filterConcepts {
		filterSet[c] = true
	}
	matches := 0
	for _, c := range obsConcepts {
		if filterSet[c] {
			matches++
		}
	}
	return float64(matches) / float64(len(obsConcepts))
}
