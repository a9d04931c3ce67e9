package sqlite

// schema is applied via CREATE TABLE/INDEX IF NOT EXISTS on every open, the
// same "schema.go holds a single embedded SQL string" shape the teacher
// uses for its issues schema. Columns beyond a straight field-for-field
// mapping of spec §3's entities exist only where SQL needs them (the
// doc_id/entity_id columns on the FTS5 table, a denylist lookup index).
const schema = `
CREATE TABLE IF NOT EXISTS memory_schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memory_events (
    event_id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL,
    slot_key TEXT NOT NULL,
    layer TEXT NOT NULL DEFAULT 'working',
    event_type TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    importance REAL NOT NULL DEFAULT 0,
    privacy_level TEXT NOT NULL DEFAULT 'private',
    provenance_source_class TEXT NOT NULL DEFAULT '',
    provenance_reference TEXT NOT NULL DEFAULT '',
    provenance_evidence_uri TEXT NOT NULL DEFAULT '',
    signal_tier TEXT NOT NULL DEFAULT 'raw',
    source_kind TEXT NOT NULL DEFAULT '',
    source_ref TEXT NOT NULL DEFAULT '',
    occurred_at DATETIME NOT NULL,
    ingested_at DATETIME NOT NULL,
    supersedes_event_id TEXT,
    retention_tier TEXT NOT NULL DEFAULT 'none',
    retention_expires_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_events_entity_slot ON memory_events(entity_id, slot_key);
CREATE INDEX IF NOT EXISTS idx_events_entity ON memory_events(entity_id);
CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON memory_events(occurred_at);

CREATE TABLE IF NOT EXISTS belief_slots (
    entity_id TEXT NOT NULL,
    slot_key TEXT NOT NULL,
    value TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active',
    winner_event_id TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0,
    importance REAL NOT NULL DEFAULT 0,
    privacy_level TEXT NOT NULL DEFAULT 'private',
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (entity_id, slot_key)
);

CREATE TABLE IF NOT EXISTS retrieval_docs (
    doc_id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL,
    slot_key TEXT NOT NULL,
    text_body TEXT NOT NULL DEFAULT '',
    layer TEXT NOT NULL DEFAULT 'working',
    provenance_source_class TEXT NOT NULL DEFAULT '',
    provenance_reference TEXT NOT NULL DEFAULT '',
    provenance_evidence_uri TEXT NOT NULL DEFAULT '',
    retention_tier TEXT NOT NULL DEFAULT 'none',
    retention_expires_at DATETIME,
    recency_score REAL NOT NULL DEFAULT 0,
    importance REAL NOT NULL DEFAULT 0,
    reliability REAL NOT NULL DEFAULT 0,
    contradiction_penalty REAL NOT NULL DEFAULT 0,
    visibility TEXT NOT NULL DEFAULT 'private',
    promotion_status TEXT NOT NULL DEFAULT 'candidate',
    embedding_status TEXT NOT NULL DEFAULT 'none',
    embedding BLOB,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_retrieval_docs_entity ON retrieval_docs(entity_id);

CREATE VIRTUAL TABLE IF NOT EXISTS retrieval_fts USING fts5(
    doc_id UNINDEXED,
    entity_id UNINDEXED,
    text_body,
    tokenize = 'trigram'
);

CREATE TABLE IF NOT EXISTS deletion_ledger (
    ledger_id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL,
    target_slot_key TEXT NOT NULL,
    phase TEXT NOT NULL,
    reason TEXT NOT NULL DEFAULT '',
    requested_by TEXT NOT NULL DEFAULT '',
    executed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- D1: any ledger entry tombstones future replays of the pair, regardless of
-- backing-store state; this index makes the denylist join in RecallScoped
-- and ResolveSlot a cheap lookup.
CREATE INDEX IF NOT EXISTS idx_deletion_ledger_pair ON deletion_ledger(entity_id, target_slot_key);
`
