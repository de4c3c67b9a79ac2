package sqlite

// Schema DDL. Every entity is stored as its JSON document keyed by type and
// id; the sandbox only needs lookups by id and by owner.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    owner TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_id)
);`

	createIDTokens = `CREATE TABLE IF NOT EXISTS id_tokens (
    token TEXT PRIMARY KEY,
    id_offset TEXT NOT NULL,
    issued_at TEXT NOT NULL
);`
)

// Index DDL.
const (
	idxEntitiesOwner = `CREATE INDEX IF NOT EXISTS idx_entities_owner ON entities(owner);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createMeta,
	createEntities,
	createIDTokens,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxEntitiesOwner,
}

// Owners of stored entities. Only private entities are removed by
// ClearAllPrivateData.
const (
	ownerPrivate      = "private"
	ownerOrganization = "organization"
	ownerAccount      = "account"
)

// Meta keys.
const (
	metaIDOffset = "id_offset"
	metaUserID   = "user_id"
)
