package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-mem/memoryd/internal/store"
)

func TestScoreObservation_RecencyAndImportanceDominate(t *testing.T) {
	now := time.Now()

	fresh := &store.CandidateObservation{
		Observation: store.Observation{
			Kind: store.KindDecision, Project: "app", CreatedAt: now.Unix(),
		},
	}
	stale := &store.CandidateObservation{
		Observation: store.Observation{
			Kind: store.KindChange, Project: "other", CreatedAt: now.AddDate(0, 0, -7).Unix(),
		},
		Rank:    -1.0,
		HasRank: true,
	}
	// stale gets the same lexical match fresh has none of.
	staleIn := ScoreInputs{Project: "app", Now: now}
	freshIn := ScoreInputs{Project: "app", Now: now}

	freshScore := scoreObservation(fresh, freshIn)
	staleScore := scoreObservation(stale, staleIn)

	assert.GreaterOrEqual(t, freshScore, staleScore)
}

func TestFileOverlap_EmptyEitherSideIsZero(t *testing.T) {
	assert.Equal(t, 0.0, fileOverlap(nil, nil, []string{"a"}))
	assert.Equal(t, 0.0, fileOverlap([]string{"a"}, nil, nil))
	assert.Equal(t, 0.5, fileOverlap([]string{"a", "b"}, nil, []string{"a"}))
}

func TestConceptOverlap_EmptyEitherSideIsZero(t *testing.T) {
	assert.Equal(t, 0.0, conceptOverlap(nil, []string{"gotcha"}))
	assert.Equal(t, 0.0, conceptOverlap([]string{"gotcha"}, nil))
	assert.Equal(t, 1.0, conceptOverlap([]string{"gotcha"}, []string{"gotcha", "pattern"}))
}

func TestParseSince_Boundaries(t *testing.T) {
	_, ok := ParseSince("0d")
	assert.False(t, ok)
	_, ok = ParseSince("366d")
	assert.False(t, ok)

	_, ok = ParseSince("1d")
	assert.True(t, ok)
	_, ok = ParseSince("365d")
	assert.True(t, ok)
	_, ok = ParseSince("52w")
	assert.True(t, ok)
	_, ok = ParseSince("53w")
	assert.False(t, ok)

	_, ok = ParseSince("today")
	require.True(t, ok)
	_, ok = ParseSince("yesterday")
	require.True(t, ok)

	_, ok = ParseSince("1700000000")
	assert.True(t, ok)
	_, ok = ParseSince("1700000000000")
	assert.True(t, ok)

	_, ok = ParseSince("2024-01-15")
	assert.True(t, ok)

	_, ok = ParseSince("not-a-date")
	assert.False(t, ok)
}

func TestCosineSimilarity_MismatchOrZeroNorm(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
}
