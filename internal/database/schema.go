package database

// Schema returns the application DDL in apply order.
func Schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id                     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email                  TEXT NOT NULL UNIQUE,
			display_name           TEXT NOT NULL DEFAULT '',
			photo_url              TEXT NOT NULL DEFAULT '',
			password_hash          TEXT NOT NULL DEFAULT '',
			role                   TEXT NOT NULL DEFAULT 'worker' CHECK (role IN ('worker', 'buyer', 'admin')),
			coins                  BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
			total_earned           BIGINT NOT NULL DEFAULT 0 CHECK (total_earned >= 0),
			total_spent            BIGINT NOT NULL DEFAULT 0 CHECK (total_spent >= 0),
			initial_coins_received BOOLEAN NOT NULL DEFAULT FALSE,
			is_active              BOOLEAN NOT NULL DEFAULT TRUE,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id                      UUID PRIMARY KEY,
			buyer_id                UUID NOT NULL REFERENCES accounts(id),
			title                   TEXT NOT NULL,
			description             TEXT NOT NULL,
			image_url               TEXT NOT NULL DEFAULT '',
			category                TEXT NOT NULL DEFAULT 'other',
			submission_instructions TEXT NOT NULL DEFAULT '',
			deadline                TIMESTAMPTZ,
			coins_per_worker        BIGINT NOT NULL CHECK (coins_per_worker >= 1),
			required_workers        INTEGER NOT NULL CHECK (required_workers >= 1),
			current_workers         INTEGER NOT NULL DEFAULT 0 CHECK (current_workers >= 0),
			escrowed_coins          BIGINT NOT NULL,
			status                  TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'completed', 'cancelled')),
			created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_buyer ON tasks (buyer_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS submissions (
			id               UUID PRIMARY KEY,
			task_id          UUID NOT NULL REFERENCES tasks(id),
			worker_id        UUID NOT NULL REFERENCES accounts(id),
			text             TEXT NOT NULL,
			images           TEXT[] NOT NULL DEFAULT '{}',
			status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
			reviewed_by      UUID REFERENCES accounts(id),
			reviewed_at      TIMESTAMPTZ,
			rejection_reason TEXT NOT NULL DEFAULT '',
			coins_awarded    BIGINT,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT submissions_task_worker_key UNIQUE (task_id, worker_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_worker ON submissions (worker_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id         UUID PRIMARY KEY,
			buyer_id   UUID NOT NULL REFERENCES accounts(id),
			amount     NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
			currency   TEXT NOT NULL DEFAULT 'usd',
			coins      BIGINT NOT NULL CHECK (coins > 0),
			reference  TEXT UNIQUE,
			status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'succeeded', 'failed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_buyer ON payments (buyer_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS withdrawals (
			id               UUID PRIMARY KEY,
			worker_id        UUID NOT NULL REFERENCES accounts(id),
			coins            BIGINT NOT NULL CHECK (coins >= 200),
			amount           NUMERIC(12, 2) NOT NULL,
			payment_method   TEXT NOT NULL CHECK (payment_method IN ('paypal', 'bank', 'crypto')),
			payment_details  JSONB NOT NULL DEFAULT '{}',
			status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'processed')),
			reviewed_by      UUID REFERENCES accounts(id),
			reviewed_at      TIMESTAMPTZ,
			rejection_reason TEXT NOT NULL DEFAULT '',
			processed_at     TIMESTAMPTZ,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals (status, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id),
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			message    TEXT NOT NULL,
			related_id UUID,
			is_read    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_account ON notifications (account_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS coin_ledger (
			id            UUID PRIMARY KEY,
			account_id    UUID NOT NULL REFERENCES accounts(id),
			entry_type    TEXT NOT NULL,
			amount        BIGINT NOT NULL,
			balance_after BIGINT NOT NULL,
			related_id    UUID,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_coin_ledger_account ON coin_ledger (account_id, created_at DESC)`,
	}
}
