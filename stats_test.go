// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStats_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.ini")

	for _, tt := range []struct{ plays, profit int }{
		{0, 0},
		{17, 42},
		{100, -31},
	} {
		if err := saveStats(path, tt.plays, tt.profit); err != nil {
			t.Fatalf("saveStats(%d, %d) failed: %v", tt.plays, tt.profit, err)
		}
		plays, profit, err := loadStats(path)
		if err != nil {
			t.Fatalf("loadStats failed: %v", err)
		}
		if plays != tt.plays || profit != tt.profit {
			t.Errorf("round trip gave %d/%d, want %d/%d", plays, profit, tt.plays, tt.profit)
		}
	}
}

func TestLoadStats_MissingFile(t *testing.T) {
	plays, profit, err := loadStats(filepath.Join(t.TempDir(), "nope.ini"))
	if err != nil {
		t.Fatalf("missing stats file is not an error, got: %v", err)
	}
	if plays != 0 || profit != 0 {
		t.Errorf("fresh machine counters = %d/%d, want 0/0", plays, profit)
	}
}

func TestLoadStats_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.ini")
	if err := os.WriteFile(path, []byte("not numbers\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := loadStats(path); !IsServerError(err, ErrStorage) {
		t.Errorf("garbage stats gave %v, want a storage error", err)
	}
}
