// Package store persists the merged dataset, the timestamp registry, and
// the ingest audit log in a SQLite side-car next to the destination
// workbook.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"skusheet/internal/dataset"
)

//go:embed schema.sql
var schemaSQL string

// SidecarPath returns the ledger database path for a destination workbook.
func SidecarPath(dest string) string {
	return dest + ".ledger.db"
}

// Open opens (creating if needed) the ledger database and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return db, nil
}

// LoadDataset rebuilds the merged dataset from the ledger, rows in their
// persisted ordinal order.
func LoadDataset(ctx context.Context, db *sql.DB) (*dataset.Dataset, error) {
	ds := dataset.New()

	rows, err := db.QueryContext(ctx, `
		SELECT o.descr, o.opc, o.sku, o.file_index,
		       o.add_value, o.on_hand_kind, o.on_hand_number, o.on_hand_text,
		       o.free_rod
		FROM observations o
		JOIN products p ON p.descr = o.descr AND p.opc = o.opc AND p.sku = o.sku
		ORDER BY p.ordinal, o.file_index
	`)
	if err != nil {
		return nil, fmt.Errorf("store: load observations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			k          dataset.Key
			index      int
			addValue   float64
			onHandKind string
			onHandNum  float64
			onHandText string
			freeROD    float64
		)
		if err := rows.Scan(&k.Descr, &k.OPC, &k.SKU, &index,
			&addValue, &onHandKind, &onHandNum, &onHandText, &freeROD); err != nil {
			return nil, fmt.Errorf("store: scan observation: %w", err)
		}
		onHand := dataset.Str(onHandText)
		if onHandKind == "number" {
			onHand = dataset.Num(onHandNum)
		}
		ds.Append(k, index, dataset.Observation{ADD: addValue, OnHand: onHand, FreeROD: freeROD})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load observations: %w", err)
	}
	return ds, nil
}

// LoadStamps rebuilds the timestamp registry.
func LoadStamps(ctx context.Context, db *sql.DB) (dataset.Stamps, error) {
	rows, err := db.QueryContext(ctx, `SELECT file_index, stamp FROM file_stamps`)
	if err != nil {
		return nil, fmt.Errorf("store: load stamps: %w", err)
	}
	defer rows.Close()

	stamps := dataset.Stamps{}
	for rows.Next() {
		var index int
		var stamp string
		if err := rows.Scan(&index, &stamp); err != nil {
			return nil, fmt.Errorf("store: scan stamp: %w", err)
		}
		stamps[index] = stamp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load stamps: %w", err)
	}
	return stamps, nil
}

// Save persists the dataset and registry in one transaction. Writes are
// append-only: existing observations and stamps are never rewritten, and
// products keep the ordinal they were first saved with, so row order and
// column attribution stay stable across sessions.
func Save(ctx context.Context, db *sql.DB, ds *dataset.Dataset, stamps dataset.Stamps) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	var ordinal int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ordinal), -1) + 1 FROM products`).Scan(&ordinal); err != nil {
		return fmt.Errorf("store: next ordinal: %w", err)
	}

	for _, k := range ds.Keys() {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO products (descr, opc, sku, ordinal)
			VALUES (?, ?, ?, ?)
		`, k.Descr, k.OPC, k.SKU, ordinal)
		if err != nil {
			return fmt.Errorf("store: insert product: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			ordinal++
		}

		for _, index := range ds.Indices() {
			obs, ok := ds.Observation(k, index)
			if !ok {
				continue
			}
			kind, num, text := "text", 0.0, obs.OnHand.Text
			if obs.OnHand.Kind == dataset.Number {
				kind, num, text = "number", obs.OnHand.Num, ""
			}
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO observations (
					descr, opc, sku, file_index,
					add_value, on_hand_kind, on_hand_number, on_hand_text, free_rod
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, k.Descr, k.OPC, k.SKU, index, obs.ADD, kind, num, text, obs.FreeROD)
			if err != nil {
				return fmt.Errorf("store: insert observation: %w", err)
			}
		}
	}

	for index, stamp := range stamps {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO file_stamps (file_index, stamp) VALUES (?, ?)
		`, index, stamp)
		if err != nil {
			return fmt.Errorf("store: insert stamp: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// IngestEntry is one audit row: the outcome of processing one input file.
type IngestEntry struct {
	SessionID string
	FilePath  string
	FileIndex int
	Status    string // "ok" or "error"
	Detail    string
	LoggedAt  time.Time
}

// LogIngest appends an audit row.
func LogIngest(ctx context.Context, db *sql.DB, e IngestEntry) error {
	at := e.LoggedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO ingest_log (id, session_id, file_path, file_index, status, detail, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), e.SessionID, e.FilePath, e.FileIndex, e.Status, e.Detail, at.Unix())
	if err != nil {
		return fmt.Errorf("store: log ingest: %w", err)
	}
	return nil
}

// History returns the audit trail, newest first.
func History(ctx context.Context, db *sql.DB, limit int) ([]IngestEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT session_id, file_path, file_index, status, detail, logged_at
		FROM ingest_log
		ORDER BY logged_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query history: %w", err)
	}
	defer rows.Close()

	var out []IngestEntry
	for rows.Next() {
		var e IngestEntry
		var at int64
		if err := rows.Scan(&e.SessionID, &e.FilePath, &e.FileIndex, &e.Status, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("store: scan history: %w", err)
		}
		e.LoggedAt = time.Unix(at, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query history: %w", err)
	}
	return out, nil
}
