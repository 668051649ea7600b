package store

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateOrGetSessionCollapsesRace(t *testing.T) {
	s := newTestStore(t)

	sess1, isNew1, err := s.CreateOrGetSession("s1", "app", "Help me fix auth")
	require.NoError(t, err)
	require.True(t, isNew1)
	require.Equal(t, "app", sess1.Project)
	require.Equal(t, SessionActive, sess1.Status)

	sess2, isNew2, err := s.CreateOrGetSession("s1", "app", "different prompt text")
	require.NoError(t, err)
	require.False(t, isNew2)
	require.Equal(t, sess1.ID, sess2.ID)
}

func TestIncrementPromptCounterMonotonic(t *testing.T) {
	s := newTestStore(t)
	sess, _, err := s.CreateOrGetSession("s1", "app", "first")
	require.NoError(t, err)

	c1, err := s.IncrementPromptCounter(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, c1)

	c2, err := s.IncrementPromptCounter(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, c2)
}

func TestUpdateSessionStatusSetsCompletedAt(t *testing.T) {
	s := newTestStore(t)
	sess, _, err := s.CreateOrGetSession("s1", "app", "first")
	require.NoError(t, err)

	require.NoError(t, s.UpdateSessionStatus(sess.ID, SessionCompleted))

	got, err := s.GetSessionByExternalID("s1")
	require.NoError(t, err)
	require.Equal(t, SessionCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestStoreObservationFTSInvariant(t *testing.T) {
	s := newTestStore(t)

	id, err := s.StoreObservation(&Observation{
		SessionRef:    "s1",
		Project:       "app",
		Kind:          KindFeature,
		Title:         "Added auth middleware",
		Narrative:     "Wires JWT validation into the router.",
		FilesModified: []string{"/p/app/src/a.ts"},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	found, err := s.SearchObservations(SearchParams{Query: `"Added auth middleware"`, Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, []string{"/p/app/src/a.ts"}, found[0].FilesModified)
	require.Empty(t, found[0].FilesRead)
}

func TestUpdateObservationEmbeddingRoundTrips(t *testing.T) {
	s := newTestStore(t)
	id, err := s.StoreObservation(&Observation{SessionRef: "s1", Project: "app", Kind: KindChange, Title: "x"})
	require.NoError(t, err)

	vec := []float32{0.1, 0.2, 0.3, 0.4}
	require.NoError(t, s.UpdateObservationEmbedding(id, vec))

	pending, err := s.GetObservationsWithoutEmbeddings(10)
	require.NoError(t, err)
	require.Empty(t, pending)

	cands, err := s.GetCandidateObservations(10, "")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	require.True(t, cands[0].HasEmbedding)
	require.Equal(t, 16, len(cands[0].Embedding))
	require.Equal(t, vec, decodeEmbedding(cands[0].Embedding))
}

func TestFindSimilarObservationJaccard(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StoreObservation(&Observation{SessionRef: "s1", Project: "app", Kind: KindBugfix, Title: "fixed the login timeout bug"})
	require.NoError(t, err)

	dup, err := s.FindSimilarObservation("app", "fixed the login timeout bug today", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, dup)

	distinct, err := s.FindSimilarObservation("app", "completely unrelated title", time.Hour)
	require.NoError(t, err)
	require.Nil(t, distinct)
}

func TestLexicalInjectionIsInert(t *testing.T) {
	s := newTestStore(t)
	_, err := s.StoreObservation(&Observation{SessionRef: "s1", Project: "app", Kind: KindChange, Title: "foo AND admin"})
	require.NoError(t, err)

	results, err := s.SearchObservations(SearchParams{Query: `"foo AND admin"`, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestEnforceRetentionPrunesOldestFirst(t *testing.T) {
	s := newTestStore(t)
	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := s.StoreObservation(&Observation{SessionRef: "s1", Project: "app", Kind: KindChange, Title: "obs", CreatedAt: time.Now().Unix() + int64(i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	deleted, err := s.EnforceRetention("app", 3)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	require.ElementsMatch(t, ids[:2], deleted)

	remaining, err := s.GetRecentObservations("app", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
}
