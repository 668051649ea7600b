// Package store provides SQLite-backed persistence for the memory daemon.
// Uses ncruces/go-sqlite3/driver, which provides a database/sql interface
// with no CGO dependency, plus sqlite-vec for the embedding companion table.
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
	"github.com/rs/zerolog"
)

// SQLiteStore is the daemon's SQLite-backed Store; callers use it directly
// (there is no separate store interface).
type SQLiteStore struct {
	mu        sync.RWMutex
	db        *sql.DB
	log       zerolog.Logger
	vecDim    int
	vecExists bool
}

// Open opens (and migrates) the store at dsn. Use ":memory:" for tests.
func Open(dsn string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-65536", // 64 MiB, negative = KiB
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS migrations (version INTEGER PRIMARY KEY, applied_at INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("store: create migrations table: %w", err)
	}

	var current int
	row := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM migrations`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("store: read migration version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("store: begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO migrations (version, applied_at) VALUES (?, ?)`, m.version, time.Now().Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit migration %d: %w", m.version, err)
		}
		s.log.Info().Int("version", m.version).Msg("applied migration")
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func marshalSlice(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func unmarshalSlice(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// encodeEmbedding packs a f32 vector as a contiguous little-endian byte blob
// per the data-model invariant: length is always 4*dim.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf)%4 != 0 {
		return nil
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// =============================================================================
// Sessions
// =============================================================================

// CreateOrGetSession implements INSERT-OR-IGNORE-on-externalSessionId
// semantics: concurrent first-prompt races collapse onto one row.
func (s *SQLiteStore) CreateOrGetSession(externalID, project, userPrompt string) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	res, err := s.db.Exec(`
		INSERT INTO sessions (external_session_id, project, user_prompt, started_at, status, prompt_counter)
		VALUES (?, ?, ?, ?, 'active', 0)
		ON CONFLICT(external_session_id) DO NOTHING
	`, externalID, project, userPrompt, now)
	if err != nil {
		return nil, false, wrapStore("CreateOrGetSession", err)
	}
	rows, _ := res.RowsAffected()
	isNew := rows > 0

	sess, err := s.getSessionByExternalIDLocked(externalID)
	if err != nil {
		return nil, false, err
	}
	return sess, isNew, nil
}

// GetSessionByExternalID returns (nil, nil) when the session does not exist.
func (s *SQLiteStore) GetSessionByExternalID(externalID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSessionByExternalIDLocked(externalID)
}

func (s *SQLiteStore) getSessionByExternalIDLocked(externalID string) (*Session, error) {
	var sess Session
	var completedAt sql.NullInt64
	var status string
	err := s.db.QueryRow(`
		SELECT id, external_session_id, project, user_prompt, started_at, completed_at, status, prompt_counter
		FROM sessions WHERE external_session_id = ?
	`, externalID).Scan(&sess.ID, &sess.ExternalSessionID, &sess.Project, &sess.UserPrompt,
		&sess.StartedAt, &completedAt, &status, &sess.PromptCounter)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStore("GetSessionByExternalID", err)
	}
	sess.Status = SessionStatus(status)
	if completedAt.Valid {
		sess.CompletedAt = &completedAt.Int64
	}
	return &sess, nil
}

// IncrementPromptCounter bumps the counter in one statement (no read-modify-write race)
// and returns the new value.
func (s *SQLiteStore) IncrementPromptCounter(sessionID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRow(`UPDATE sessions SET prompt_counter = prompt_counter + 1 WHERE id = ? RETURNING prompt_counter`, sessionID).Scan(&count)
	if err != nil {
		return 0, wrapStore("IncrementPromptCounter", err)
	}
	return count, nil
}

// UpdateSessionStatus sets status and, if terminal, completedAt.
func (s *SQLiteStore) UpdateSessionStatus(sessionID int64, status SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == SessionCompleted || status == SessionFailed {
		_, err := s.db.Exec(`UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?`, status, time.Now().Unix(), sessionID)
		return wrapStore("UpdateSessionStatus", err)
	}
	_, err := s.db.Exec(`UPDATE sessions SET status = ? WHERE id = ?`, status, sessionID)
	return wrapStore("UpdateSessionStatus", err)
}

// SavePrompt persists one raw (already-sanitized) user prompt.
func (s *SQLiteStore) SavePrompt(p *UserPrompt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	res, err := s.db.Exec(`
		INSERT INTO user_prompts (external_session_id, prompt_number, prompt_text, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ExternalSessionID, p.PromptNumber, p.PromptText, p.CreatedAt)
	if err != nil {
		return 0, wrapStore("SavePrompt", err)
	}
	return res.LastInsertId()
}

// =============================================================================
// Observations
// =============================================================================

// StoreObservation inserts a new observation and returns its row ID.
func (s *SQLiteStore) StoreObservation(o *Observation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.CreatedAt == 0 {
		o.CreatedAt = time.Now().Unix()
	}
	res, err := s.db.Exec(`
		INSERT INTO observations (session_ref, project, kind, title, subtitle, narrative,
			facts, concepts, files_read, files_modified, prompt_number, discovery_tokens, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.SessionRef, o.Project, string(o.Kind), o.Title, o.Subtitle, o.Narrative,
		marshalSlice(o.Facts), marshalSlice(o.Concepts), marshalSlice(o.FilesRead), marshalSlice(o.FilesModified),
		o.PromptNumber, o.DiscoveryTokens, o.CreatedAt, o.Embedding)
	if err != nil {
		return 0, wrapStore("StoreObservation", err)
	}
	return res.LastInsertId()
}

// StoreSummary inserts a new summary and returns its row ID.
func (s *SQLiteStore) StoreSummary(sum *Summary) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sum.CreatedAt == 0 {
		sum.CreatedAt = time.Now().Unix()
	}
	res, err := s.db.Exec(`
		INSERT INTO summaries (session_ref, project, request, investigated, learned, completed, next_steps, notes, prompt_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.SessionRef, sum.Project, sum.Request, sum.Investigated, sum.Learned, sum.Completed, sum.NextSteps, sum.Notes,
		sum.PromptNumber, sum.CreatedAt)
	if err != nil {
		return 0, wrapStore("StoreSummary", err)
	}
	return res.LastInsertId()
}

// ensureVectorTable lazily creates the vec0 companion table at the first
// observed embedding dimension. vec0 tables fix their dimension at creation
// time; the Model Adapter contract guarantees a stable dim for the process
// lifetime, so the first write wins and later writes must match.
func (s *SQLiteStore) ensureVectorTable(dim int) error {
	if s.vecExists {
		if s.vecDim != dim {
			return fmt.Errorf("store: embedding dim changed from %d to %d", s.vecDim, dim)
		}
		return nil
	}
	_, err := s.db.Exec(fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS observation_vectors USING vec0(embedding float[%d])`, dim))
	if err != nil {
		return err
	}
	s.vecDim = dim
	s.vecExists = true
	return nil
}

// UpdateObservationEmbedding writes the raw embedding bytes to the
// observation row and mirrors them into the vec0 companion table for
// NearestObservations.
func (s *SQLiteStore) UpdateObservationEmbedding(id int64, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob := encodeEmbedding(vec)
	if _, err := s.db.Exec(`UPDATE observations SET embedding = ? WHERE id = ?`, blob, id); err != nil {
		return wrapStore("UpdateObservationEmbedding", err)
	}

	if err := s.ensureVectorTable(len(vec)); err != nil {
		s.log.Warn().Err(err).Msg("vector table unavailable, skipping KNN mirror")
		return nil
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO observation_vectors (rowid, embedding) VALUES (?, ?)`, id, blob); err != nil {
		s.log.Warn().Err(err).Msg("failed to mirror embedding into vector table")
	}
	return nil
}

// GetObservationsWithoutEmbeddings returns observations pending embedding, for backfill.
func (s *SQLiteStore) GetObservationsWithoutEmbeddings(limit int) ([]*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, session_ref, project, kind, title, subtitle, narrative, facts, concepts,
			files_read, files_modified, prompt_number, discovery_tokens, created_at
		FROM observations WHERE embedding IS NULL ORDER BY created_at ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrapStore("GetObservationsWithoutEmbeddings", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// SearchParams configures a lexical search over observations.
type SearchParams struct {
	Query         string
	ConceptFilter string
	ProjectFilter string
	Limit         int
}

// SearchObservations runs a sanitized lexical query against observations_fts,
// ordered by rank ascending (best match first).
func (s *SQLiteStore) SearchObservations(p SearchParams) ([]*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT o.id, o.session_ref, o.project, o.kind, o.title, o.subtitle, o.narrative, o.facts, o.concepts,
			o.files_read, o.files_modified, o.prompt_number, o.discovery_tokens, o.created_at
		FROM observations o
		JOIN observations_fts fts ON o.id = fts.rowid
		WHERE observations_fts MATCH ?`
	args := []interface{}{p.Query}

	if p.ConceptFilter != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(o.concepts) WHERE LOWER(value) = LOWER(?))`
		args = append(args, p.ConceptFilter)
	}
	if p.ProjectFilter != "" {
		query += ` AND o.project = ?`
		args = append(args, p.ProjectFilter)
	}
	query += ` ORDER BY fts.rank ASC LIMIT ?`
	args = append(args, clampLimit(p.Limit))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapStore("SearchObservations", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// FindObservationsByFile matches observations whose files_read or
// files_modified column contains substr, newest first. files_read/
// files_modified sit outside observations_fts (migrations.go only indexes
// title/subtitle/narrative/facts/concepts), so this filters the columns
// directly with LIKE rather than going through the FTS MATCH path.
func (s *SQLiteStore) FindObservationsByFile(substr string, limit int) ([]*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, session_ref, project, kind, title, subtitle, narrative, facts, concepts,
			files_read, files_modified, prompt_number, discovery_tokens, created_at
		FROM observations
		WHERE files_read LIKE ? ESCAPE '\' OR files_modified LIKE ? ESCAPE '\'
		ORDER BY created_at DESC LIMIT ?`
	like := "%" + escapeLike(substr) + "%"

	rows, err := s.db.Query(query, like, like, clampLimit(limit))
	if err != nil {
		return nil, wrapStore("FindObservationsByFile", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// escapeLike escapes LIKE wildcard characters so a raw filename can be
// embedded in a %...% pattern without matching unintended rows.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchSummaries is the same-shaped search over summaries, without a concept filter.
func (s *SQLiteStore) SearchSummaries(query, projectFilter string, limit int) ([]*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sqlQuery := `
		SELECT s.id, s.session_ref, s.project, s.request, s.investigated, s.learned, s.completed, s.next_steps, s.notes, s.prompt_number, s.created_at
		FROM summaries s
		JOIN summaries_fts fts ON s.id = fts.rowid
		WHERE summaries_fts MATCH ?`
	args := []interface{}{query}
	if projectFilter != "" {
		sqlQuery += ` AND s.project = ?`
		args = append(args, projectFilter)
	}
	sqlQuery += ` ORDER BY fts.rank ASC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, wrapStore("SearchSummaries", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// GetRecentObservations returns the most recent observations, optionally scoped to project.
func (s *SQLiteStore) GetRecentObservations(project string, limit int) ([]*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, session_ref, project, kind, title, subtitle, narrative, facts, concepts,
			files_read, files_modified, prompt_number, discovery_tokens, created_at
		FROM observations`
	args := []interface{}{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapStore("GetRecentObservations", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// GetRecentSummaries returns the most recent summaries, optionally scoped to project.
func (s *SQLiteStore) GetRecentSummaries(project string, limit int) ([]*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, session_ref, project, request, investigated, learned, completed, next_steps, notes, prompt_number, created_at
		FROM summaries`
	args := []interface{}{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, clampLimit(limit))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapStore("GetRecentSummaries", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// GetCandidateObservations pulls cross-project retrieval candidates: ranked by
// lexical match when a query is supplied, else by recency.
func (s *SQLiteStore) GetCandidateObservations(limit int, lexicalQuery string) ([]*CandidateObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = clampLimit(limit)

	if lexicalQuery == "" {
		rows, err := s.db.Query(`
			SELECT id, session_ref, project, kind, title, subtitle, narrative, facts, concepts,
				files_read, files_modified, prompt_number, discovery_tokens, created_at, embedding
			FROM observations ORDER BY created_at DESC LIMIT ?
		`, limit)
		if err != nil {
			return nil, wrapStore("GetCandidateObservations", err)
		}
		defer rows.Close()
		return scanCandidates(rows, false)
	}

	rows, err := s.db.Query(`
		SELECT o.id, o.session_ref, o.project, o.kind, o.title, o.subtitle, o.narrative, o.facts, o.concepts,
			o.files_read, o.files_modified, o.prompt_number, o.discovery_tokens, o.created_at, o.embedding, fts.rank
		FROM observations o
		JOIN observations_fts fts ON o.id = fts.rowid
		WHERE observations_fts MATCH ?
		ORDER BY fts.rank ASC LIMIT ?
	`, lexicalQuery, limit)
	if err != nil {
		return nil, wrapStore("GetCandidateObservations", err)
	}
	defer rows.Close()
	return scanCandidates(rows, true)
}

// NearestObservations finds the k observations whose embedding is closest
// (by the vec0 extension's distance metric) to vector. Returns an empty
// slice, not an error, if the vector table hasn't been created yet.
func (s *SQLiteStore) NearestObservations(vector []float32, k int) ([]*CandidateObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.vecExists {
		return nil, nil
	}
	if len(vector) != s.vecDim {
		return nil, fmt.Errorf("store: query vector dim %d does not match stored dim %d", len(vector), s.vecDim)
	}

	rows, err := s.db.Query(`
		SELECT o.id, o.session_ref, o.project, o.kind, o.title, o.subtitle, o.narrative, o.facts, o.concepts,
			o.files_read, o.files_modified, o.prompt_number, o.discovery_tokens, o.created_at, o.embedding, v.distance
		FROM observation_vectors v
		JOIN observations o ON o.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance ASC
	`, encodeEmbedding(vector), k)
	if err != nil {
		return nil, wrapStore("NearestObservations", err)
	}
	defer rows.Close()
	return scanCandidates(rows, true)
}

// FindSimilarObservation fetches up to the 20 most recent same-project
// observations within withinDuration and returns the first whose title has
// Jaccard similarity > 0.8 with title.
func (s *SQLiteStore) FindSimilarObservation(project, title string, withinDuration time.Duration) (*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-withinDuration).Unix()
	rows, err := s.db.Query(`
		SELECT id, session_ref, project, kind, title, subtitle, narrative, facts, concepts,
			files_read, files_modified, prompt_number, discovery_tokens, created_at
		FROM observations WHERE project = ? AND created_at >= ? ORDER BY created_at DESC LIMIT 20
	`, project, cutoff)
	if err != nil {
		return nil, wrapStore("FindSimilarObservation", err)
	}
	defer rows.Close()

	candidates, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if JaccardSimilarity(c.Title, title) > 0.8 {
			return c, nil
		}
	}
	return nil, nil
}

// EnforceRetention prunes all but the maxPerProject most recent observations
// for project (supplemental, off by default). Returns the deleted IDs so
// callers can evict matching rows from companion stores (vector table).
func (s *SQLiteStore) EnforceRetention(project string, maxPerProject int) ([]int64, error) {
	if maxPerProject <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id FROM observations
		WHERE project = ? AND id NOT IN (
			SELECT id FROM observations WHERE project = ? ORDER BY created_at DESC LIMIT ?
		)
	`, project, project, maxPerProject)
	if err != nil {
		return nil, wrapStore("EnforceRetention", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, wrapStore("EnforceRetention", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := repeatPlaceholders(len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.Exec(`DELETE FROM observations WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return nil, wrapStore("EnforceRetention", err)
	}
	if s.vecExists {
		if _, err := s.db.Exec(`DELETE FROM observation_vectors WHERE rowid IN (`+placeholders+`)`, args...); err != nil {
			s.log.Warn().Err(err).Msg("failed to prune vector table during retention")
		}
	}
	return ids, nil
}

func repeatPlaceholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

func clampLimit(limit int) int {
	const minLimit, maxLimit, defaultLimit = 1, 100, 10
	if limit <= 0 {
		return defaultLimit
	}
	if limit < minLimit {
		return minLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// =============================================================================
// Row scanning
// =============================================================================

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanObservationRow(sc scanner) (*Observation, error) {
	var o Observation
	var kind string
	var subtitle, narrative, facts, concepts, filesRead, filesModified sql.NullString
	if err := sc.Scan(&o.ID, &o.SessionRef, &o.Project, &kind, &o.Title, &subtitle, &narrative,
		&facts, &concepts, &filesRead, &filesModified, &o.PromptNumber, &o.DiscoveryTokens, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Kind = ObservationKind(kind)
	if subtitle.Valid {
		o.Subtitle = subtitle.String
	}
	if narrative.Valid {
		o.Narrative = narrative.String
	}
	o.Facts = unmarshalSlice(facts.String)
	o.Concepts = unmarshalSlice(concepts.String)
	o.FilesRead = unmarshalSlice(filesRead.String)
	o.FilesModified = unmarshalSlice(filesModified.String)
	return &o, nil
}

func scanObservations(rows *sql.Rows) ([]*Observation, error) {
	var out []*Observation
	for rows.Next() {
		o, err := scanObservationRow(rows)
		if err != nil {
			return nil, wrapStore("scanObservations", err)
		}
		out = append(out, o)
	}
	return out, wrapStore("scanObservations", rows.Err())
}

func scanCandidates(rows *sql.Rows, hasRank bool) ([]*CandidateObservation, error) {
	var out []*CandidateObservation
	for rows.Next() {
		var o Observation
		var kind string
		var subtitle, narrative, facts, concepts, filesRead, filesModified sql.NullString
		var embedding []byte
		var rank sql.NullFloat64

		dest := []interface{}{&o.ID, &o.SessionRef, &o.Project, &kind, &o.Title, &subtitle, &narrative,
			&facts, &concepts, &filesRead, &filesModified, &o.PromptNumber, &o.DiscoveryTokens, &o.CreatedAt, &embedding}
		if hasRank {
			dest = append(dest, &rank)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, wrapStore("scanCandidates", err)
		}

		o.Kind = ObservationKind(kind)
		if subtitle.Valid {
			o.Subtitle = subtitle.String
		}
		if narrative.Valid {
			o.Narrative = narrative.String
		}
		o.Facts = unmarshalSlice(facts.String)
		o.Concepts = unmarshalSlice(concepts.String)
		o.FilesRead = unmarshalSlice(filesRead.String)
		o.FilesModified = unmarshalSlice(filesModified.String)
		o.Embedding = embedding

		out = append(out, &CandidateObservation{
			Observation:  o,
			Rank:         rank.Float64,
			HasRank:      rank.Valid,
			HasEmbedding: len(embedding) > 0,
		})
	}
	return out, wrapStore("scanCandidates", rows.Err())
}

func scanSummaries(rows *sql.Rows) ([]*Summary, error) {
	var out []*Summary
	for rows.Next() {
		var sum Summary
		var request, investigated, learned, completed, nextSteps, notes sql.NullString
		if err := rows.Scan(&sum.ID, &sum.SessionRef, &sum.Project, &request, &investigated, &learned,
			&completed, &nextSteps, &notes, &sum.PromptNumber, &sum.CreatedAt); err != nil {
			return nil, wrapStore("scanSummaries", err)
		}
		sum.Request = request.String
		sum.Investigated = investigated.String
		sum.Learned = learned.String
		sum.Completed = completed.String
		sum.NextSteps = nextSteps.String
		sum.Notes = notes.String
		out = append(out, &sum)
	}
	return out, wrapStore("scanSummaries", rows.Err())
}
