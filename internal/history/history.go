// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package history persists the outcome of control operations, so past
// compile, flash and reset runs can be inspected later.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	// Register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id      TEXT PRIMARY KEY,
	verb    TEXT NOT NULL,
	success INTEGER NOT NULL,
	message TEXT NOT NULL,
	created TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created ON runs (created);
`

// Record is one persisted control operation outcome.
type Record struct {
	ID      string    `json:"id"`
	Verb    string    `json:"verb"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
}

// Store is a run history backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens the database at the given path, creating file and schema if
// necessary.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(schema)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck
}

// Append stores a new record for the given verb and returns it.
func (s *Store) Append(
	ctx context.Context,
	verb string,
	success bool,
	message string,
) (Record, error) {
	record := Record{
		ID:      uuid.NewString(),
		Verb:    verb,
		Success: success,
		Message: message,
		Created: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, verb, success, message, created)
		 VALUES (?, ?, ?, ?, ?)`,
		record.ID,
		record.Verb,
		record.Success,
		record.Message,
		record.Created,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	return record, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, verb, success, message, created
		 FROM runs ORDER BY created DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}

	for rows.Next() {
		var record Record

		err = rows.Scan(
			&record.ID,
			&record.Verb,
			&record.Success,
			&record.Message,
			&record.Created,
		)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		records = append(records, record)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("read records: %w", rows.Err())
	}

	return records, nil
}
