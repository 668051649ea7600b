package search

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/claude-mem/memoryd/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedObservation(t *testing.T, s *store.SQLiteStore, o *store.Observation) int64 {
	t.Helper()
	id, err := s.StoreObservation(o)
	require.NoError(t, err)
	return id
}

func TestRunSearch_LexicalInjectionIsInert(t *testing.T) {
	s := newTestStore(t)
	seedObservation(t, s, &store.Observation{
		Project: "app", Kind: store.KindDecision, Title: "foo AND admin", Narrative: "n",
	})
	seedObservation(t, s, &store.Observation{
		Project: "app", Kind: store.KindDecision, Title: "foo", Narrative: "n",
	})
	seedObservation(t, s, &store.Observation{
		Project: "app", Kind: store.KindDecision, Title: "admin", Narrative: "n",
	})

	text, err := runSearch(s, searchArgs{query: "foo AND admin", limit: 10})
	require.NoError(t, err)
	require.Contains(t, text, "foo AND admin")
	require.NotContains(t, text, "[2]")
}

func TestRunFindByFile_SubstringMatch(t *testing.T) {
	s := newTestStore(t)
	seedObservation(t, s, &store.Observation{
		Project: "app", Kind: store.KindBugfix, Title: "fixed the parsing bug", Narrative: "rewrote the token scanner",
		FilesModified: []string{"/p/app/src/auth.go"},
	})
	seedObservation(t, s, &store.Observation{
		Project: "app", Kind: store.KindFeature, Title: "added a new endpoint", Narrative: "wired up routing",
		FilesModified: []string{"/p/app/src/other.go"},
	})

	text, err := runFindByFile(s, "auth.go", 10)
	require.NoError(t, err)
	require.Contains(t, text, "fixed the parsing bug")
	require.NotContains(t, text, "added a new endpoint")
}

func TestRunDecisions_FiltersToDecisionKind(t *testing.T) {
	s := newTestStore(t)
	seedObservation(t, s, &store.Observation{Project: "app", Kind: store.KindDecision, Title: "d1", Narrative: "n"})
	seedObservation(t, s, &store.Observation{Project: "app", Kind: store.KindBugfix, Title: "b1", Narrative: "n"})

	text, err := runDecisions(s, "app", 10)
	require.NoError(t, err)
	require.Contains(t, text, "d1")
	require.NotContains(t, text, "b1")
}

func TestRunTimeline_MergesAndSortsDescending(t *testing.T) {
	s := newTestStore(t)
	seedObservation(t, s, &store.Observation{Project: "app", Kind: store.KindChange, Title: "older", Narrative: "n", CreatedAt: time.Now().Add(-time.Hour).Unix()})

	_, err := s.StoreSummary(&store.Summary{Project: "app", SessionRef: "s1", Completed: "newer summary"})
	require.NoError(t, err)

	text, err := runTimeline(s, "app", 10)
	require.NoError(t, err)
	require.Contains(t, text, "newer summary")
	require.Contains(t, text, "older")
	require.Less(t, strings.Index(text, "newer summary"), strings.Index(text, "older"))
}
