package postgres

// schema is idempotent DDL for the whole application.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	balance NUMERIC(14,2) NOT NULL DEFAULT 0,
	allow_negative BOOLEAN NOT NULL DEFAULT FALSE,
	is_archived BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('expense', 'income')),
	keywords TEXT[],
	is_archived BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	type TEXT NOT NULL CHECK (type IN ('expense', 'income')),
	date DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	account_id UUID NOT NULL REFERENCES accounts(id),
	category_id UUID NOT NULL REFERENCES categories(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions (category_id);

CREATE TABLE IF NOT EXISTS budgets (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	amount NUMERIC(14,2) NOT NULL,
	month INT NOT NULL CHECK (month BETWEEN 1 AND 12),
	year INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, month, year)
);

CREATE TABLE IF NOT EXISTS reset_tokens (
	token UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at TIMESTAMPTZ NOT NULL
);
`

// defaultCategories are seeded per user on first registration so new users
// can record transactions immediately.
var defaultCategories = []struct {
	Name string
	Type string
}{
	{"Food & Drink", "expense"},
	{"Groceries", "expense"},
	{"Transportation", "expense"},
	{"Bills & Utilities", "expense"},
	{"Entertainment", "expense"},
	{"Shopping", "expense"},
	{"Salary", "income"},
	{"Other Income", "income"},
}
