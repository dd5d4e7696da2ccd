// internal/db/schema.go
package db

// schema holds the idempotent DDL for the three relations. The CHECK
// constraints are the database's own line of defense for the availability
// invariant; the application is expected never to trip them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		publisher TEXT NOT NULL DEFAULT '',
		year INT NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		shelf_code TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		total_copies INT NOT NULL CHECK (total_copies >= 1),
		available_copies INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'retired')),
		version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (available_copies >= 0 AND available_copies <= total_copies)
	)`,

	`CREATE TABLE IF NOT EXISTS members (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		group_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		registered_on TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'removed')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS loans (
		id UUID PRIMARY KEY,
		item_id UUID NOT NULL REFERENCES items (id),
		member_id UUID NOT NULL REFERENCES members (id),
		borrowed_on TIMESTAMPTZ NOT NULL,
		due_on TIMESTAMPTZ NOT NULL,
		returned_on TIMESTAMPTZ,
		status TEXT NOT NULL CHECK (status IN ('open', 'closed')),
		idempotency_key TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK ((status = 'open') = (returned_on IS NULL))
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_idempotency_key
		ON loans (idempotency_key) WHERE idempotency_key IS NOT NULL`,

	`CREATE INDEX IF NOT EXISTS idx_loans_item_open
		ON loans (item_id) WHERE status = 'open'`,

	`CREATE INDEX IF NOT EXISTS idx_loans_member_open
		ON loans (member_id) WHERE status = 'open'`,
}
