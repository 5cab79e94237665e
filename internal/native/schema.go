package native

// Schema DDL. Dates are microseconds since the Unix epoch.
const (
	createItems = `CREATE TABLE IF NOT EXISTS items (
    item_id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    due_date INTEGER,
    completion_date INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createLabels = `CREATE TABLE IF NOT EXISTS labels (
    label_id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL UNIQUE,
    color TEXT NOT NULL
);`

	createItemLabels = `CREATE TABLE IF NOT EXISTS item_labels (
    item_id INTEGER NOT NULL,
    label_id INTEGER NOT NULL,
    PRIMARY KEY (item_id, label_id),
    FOREIGN KEY (item_id) REFERENCES items(item_id) ON DELETE CASCADE,
    FOREIGN KEY (label_id) REFERENCES labels(label_id) ON DELETE CASCADE
);`
)

// Index DDL for association lookups.
const (
	idxItemLabelsLabel = `CREATE INDEX IF NOT EXISTS idx_item_labels_label ON item_labels(label_id);`
	idxItemsDueDate    = `CREATE INDEX IF NOT EXISTS idx_items_due_date ON items(due_date);`
)

// connectionPragmas are applied to every opened store before the schema.
var connectionPragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createItems,
	createLabels,
	createItemLabels,
	idxItemLabelsLabel,
	idxItemsDueDate,
}
