package sqlstore

import (
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect captures the few statements that differ between SQL backends.
type Dialect struct {
	Name       string
	DriverName string
	CreateDDL  string
	InsertSQL  string
	DeleteSQL  string
}

// SQLite stores sessions in a local file through modernc.org/sqlite.
var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	CreateDDL: `CREATE TABLE IF NOT EXISTS sessions (
		id          INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		start_date  DATE NOT NULL,
		batches     TEXT NOT NULL
	)`,
	InsertSQL: `INSERT INTO sessions (name, start_date, batches) VALUES (?, ?, ?) RETURNING id`,
	DeleteSQL: `DELETE FROM sessions WHERE id = ?`,
}

// Postgres stores sessions through pgx's database/sql adapter.
var Postgres = Dialect{
	Name:       "postgres",
	DriverName: "pgx",
	CreateDDL: `CREATE TABLE IF NOT EXISTS sessions (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		start_date  DATE NOT NULL,
		batches     TEXT NOT NULL
	)`,
	InsertSQL: `INSERT INTO sessions (name, start_date, batches) VALUES ($1, $2, $3) RETURNING id`,
	DeleteSQL: `DELETE FROM sessions WHERE id = $1`,
}

const listSQL = `SELECT id, name, start_date, batches FROM sessions ORDER BY start_date DESC, id DESC`
