// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// SpinRecord is one completed spin in the history ledger.
type SpinRecord struct {
	bun.BaseModel `bun:"table:spins"`

	ID       string    `bun:"id,pk"`
	PlayedAt time.Time `bun:"played_at,notnull"`

	// Stop0..Stop2 are the reel stops (0-19) the spin landed on.
	Stop0 int `bun:"stop0,notnull"`
	Stop1 int `bun:"stop1,notnull"`
	Stop2 int `bun:"stop2,notnull"`

	// Payout is the coins this spin paid.
	Payout int `bun:"payout,notnull"`

	// Plays and Profit are the machine totals after the spin settled.
	Plays  int `bun:"plays,notnull"`
	Profit int `bun:"profit,notnull"`
}

// History is an optional SQLite-backed ledger of every completed spin.
type History struct {
	db *bun.DB
}

// OpenHistory opens (creating if needed) the spin ledger at path.
func OpenHistory(path string) (*History, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageError("OpenHistory", "failed to open history database", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().
		Model((*SpinRecord)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		db.Close()
		return nil, storageError("OpenHistory", "failed to create spins table", err)
	}

	return &History{db: db}, nil
}

// Record appends one settled spin to the ledger.
func (h *History) Record(stops [3]int, payout, plays, profit int) error {
	rec := &SpinRecord{
		ID:       uuid.NewString(),
		PlayedAt: time.Now().UTC(),
		Stop0:    stops[0],
		Stop1:    stops[1],
		Stop2:    stops[2],
		Payout:   payout,
		Plays:    plays,
		Profit:   profit,
	}
	if _, err := h.db.NewInsert().Model(rec).Exec(context.Background()); err != nil {
		return storageError("History.Record", "failed to insert spin record", err)
	}
	return nil
}

// Recent returns the most recent spins, newest first.
func (h *History) Recent(limit int) ([]SpinRecord, error) {
	var recs []SpinRecord
	if err := h.db.NewSelect().
		Model(&recs).
		Order("played_at DESC").
		Limit(limit).
		Scan(context.Background()); err != nil {
		return nil, storageError("History.Recent", "failed to query spin records", err)
	}
	return recs, nil
}

// Close releases the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}
