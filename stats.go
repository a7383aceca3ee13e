// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"fmt"
	"os"
)

// loadStats reads the persisted counters: two whitespace-separated decimal
// integers, plays then profit. A missing file is a fresh machine, not an
// error.
func loadStats(path string) (plays, profit int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, storageError("loadStats", "failed to read stats file", err)
	}

	if _, err := fmt.Sscanf(string(data), "%d %d", &plays, &profit); err != nil {
		return 0, 0, storageError("loadStats", "failed to parse stats file", err)
	}
	return plays, profit, nil
}

// saveStats rewrites the counters in the same format loadStats reads.
func saveStats(path string, plays, profit int) error {
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d %d\n", plays, profit)), 0o644); err != nil {
		return storageError("saveStats", "failed to write stats file", err)
	}
	return nil
}
