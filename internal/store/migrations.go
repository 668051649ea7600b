package store

// migration is one versioned, forward-only schema change, applied inside a
// single transaction. The applied version is recorded in the migrations
// table so a later open only runs what's pending.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS sessions (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    external_session_id TEXT NOT NULL UNIQUE,
    project             TEXT NOT NULL,
    user_prompt         TEXT,
    started_at          INTEGER NOT NULL,
    completed_at        INTEGER,
    status              TEXT NOT NULL DEFAULT 'active',
    prompt_counter      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_prompts (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    external_session_id TEXT NOT NULL,
    prompt_number       INTEGER NOT NULL,
    prompt_text         TEXT,
    created_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_prompts_session ON user_prompts(external_session_id);

CREATE TABLE IF NOT EXISTS observations (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    session_ref      TEXT NOT NULL,
    project          TEXT NOT NULL,
    kind             TEXT NOT NULL,
    title            TEXT,
    subtitle         TEXT,
    narrative        TEXT,
    facts            TEXT,
    concepts         TEXT,
    files_read       TEXT,
    files_modified   TEXT,
    prompt_number    INTEGER NOT NULL DEFAULT 0,
    discovery_tokens INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL,
    embedding        BLOB
);
CREATE INDEX IF NOT EXISTS idx_observations_project ON observations(project);
CREATE INDEX IF NOT EXISTS idx_observations_session ON observations(session_ref);
CREATE INDEX IF NOT EXISTS idx_observations_created ON observations(created_at);
CREATE INDEX IF NOT EXISTS idx_observations_embedding_null ON observations(id) WHERE embedding IS NULL;

CREATE VIRTUAL TABLE IF NOT EXISTS observations_fts USING fts5(
    title, subtitle, narrative, facts, concepts,
    content='observations', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS observations_ai AFTER INSERT ON observations BEGIN
    INSERT INTO observations_fts(rowid, title, subtitle, narrative, facts, concepts)
    VALUES (new.id, new.title, new.subtitle, new.narrative, new.facts, new.concepts);
END;

CREATE TRIGGER IF NOT EXISTS observations_ad AFTER DELETE ON observations BEGIN
    INSERT INTO observations_fts(observations_fts, rowid, title, subtitle, narrative, facts, concepts)
    VALUES ('delete', old.id, old.title, old.subtitle, old.narrative, old.facts, old.concepts);
END;

CREATE TABLE IF NOT EXISTS summaries (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_ref   TEXT NOT NULL,
    project       TEXT NOT NULL,
    request       TEXT,
    investigated  TEXT,
    learned       TEXT,
    completed     TEXT,
    next_steps    TEXT,
    notes         TEXT,
    prompt_number INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_project ON summaries(project);
CREATE INDEX IF NOT EXISTS idx_summaries_session ON summaries(session_ref);
CREATE INDEX IF NOT EXISTS idx_summaries_created ON summaries(created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS summaries_fts USING fts5(
    request, investigated, learned, completed, next_steps, notes,
    content='summaries', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS summaries_ai AFTER INSERT ON summaries BEGIN
    INSERT INTO summaries_fts(rowid, request, investigated, learned, completed, next_steps, notes)
    VALUES (new.id, new.request, new.investigated, new.learned, new.completed, new.next_steps, new.notes);
END;

CREATE TRIGGER IF NOT EXISTS summaries_ad AFTER DELETE ON summaries BEGIN
    INSERT INTO summaries_fts(summaries_fts, rowid, request, investigated, learned, completed, next_steps, notes)
    VALUES ('delete', old.id, old.request, old.investigated, old.learned, old.completed, old.next_steps, old.notes);
END;
`,
	},
}
