// Package archive persists delivered sentences to a sqlite database so
// a replay run can be inspected after the fact.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Archive records replayed sentences keyed by run id.
type Archive struct {
	db    *sql.DB
	runID string
}

// Open opens (or creates) the archive database at path and registers
// the run.
func Open(path, runID string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS sentences (
			run_id TEXT,
			mmsi INTEGER,
			instant DOUBLE,
			sentence TEXT,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_sentences_run_mmsi ON sentences(run_id, mmsi);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	if _, err := db.Exec("INSERT INTO runs (run_id, started_at) VALUES (?, ?)", runID, time.Now().UTC()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	return &Archive{db: db, runID: runID}, nil
}

// Record stores one delivered sentence.
func (a *Archive) Record(instant float64, mmsi uint32, sentence string) error {
	_, err := a.db.Exec(
		"INSERT INTO sentences (run_id, mmsi, instant, sentence) VALUES (?, ?, ?, ?)",
		a.runID, mmsi, instant, sentence,
	)
	return err
}

// SentenceCount returns the number of sentences stored for this run.
func (a *Archive) SentenceCount() (int, error) {
	var n int
	err := a.db.QueryRow("SELECT COUNT(*) FROM sentences WHERE run_id = ?", a.runID).Scan(&n)
	return n, err
}

// VesselCount returns the number of distinct vessels stored for this run.
func (a *Archive) VesselCount() (int, error) {
	var n int
	err := a.db.QueryRow("SELECT COUNT(DISTINCT mmsi) FROM sentences WHERE run_id = ?", a.runID).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
