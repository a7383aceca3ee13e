// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all server configuration.
type Config struct {
	// ListenAddr is the TCP address for RFB connections.
	ListenAddr string

	// WebSocketAddr, when non-empty, is an HTTP address serving the same
	// RFB protocol over binary WebSocket frames at /websockify.
	WebSocketAddr string

	// AssetDir is where the game's image blobs live.
	AssetDir string

	// StatsPath is the plays/profit counter file.
	StatsPath string

	// HistoryPath, when non-empty, enables the SQLite spin ledger.
	HistoryPath string

	// AcceptRate and AcceptBurst rate-limit connections per client IP.
	// A rate of zero disables limiting.
	AcceptRate  float64
	AcceptBurst int

	// Logger receives server logs. Defaults to a slog-backed logger.
	Logger Logger
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Default values.
const (
	DefaultListenAddr  = ":5900"
	DefaultAssetDir    = "."
	DefaultStatsPath   = "stats.ini"
	DefaultAcceptRate  = 0
	DefaultAcceptBurst = 5
)

// LoadConfig reads configuration from environment variables, applying
// defaults for anything unset. The zero configuration runs the server the
// traditional way: TCP port 5900, assets and stats in the working
// directory, no WebSocket listener, no history, no rate limit.
//
// Environment variables:
//
//	VNCSLOTS_LISTEN       TCP listen address (default ":5900")
//	VNCSLOTS_WS_LISTEN    WebSocket listen address (default disabled)
//	VNCSLOTS_ASSET_DIR    image blob directory (default ".")
//	VNCSLOTS_STATS        stats file path (default "stats.ini")
//	VNCSLOTS_HISTORY_DB   SQLite spin ledger path (default disabled)
//	VNCSLOTS_ACCEPT_RATE  accepted connections per second per IP (default unlimited)
//	VNCSLOTS_ACCEPT_BURST accept burst per IP (default 5)
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr:  DefaultListenAddr,
		AssetDir:    DefaultAssetDir,
		StatsPath:   DefaultStatsPath,
		AcceptRate:  DefaultAcceptRate,
		AcceptBurst: DefaultAcceptBurst,
	}

	if v := os.Getenv("VNCSLOTS_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("VNCSLOTS_WS_LISTEN"); v != "" {
		cfg.WebSocketAddr = v
	}
	if v := os.Getenv("VNCSLOTS_ASSET_DIR"); v != "" {
		cfg.AssetDir = v
	}
	if v := os.Getenv("VNCSLOTS_STATS"); v != "" {
		cfg.StatsPath = v
	}
	if v := os.Getenv("VNCSLOTS_HISTORY_DB"); v != "" {
		cfg.HistoryPath = v
	}

	var errs ValidationErrors

	if v := os.Getenv("VNCSLOTS_ACCEPT_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 {
			errs = append(errs, ValidationError{
				Field:   "VNCSLOTS_ACCEPT_RATE",
				Message: fmt.Sprintf("must be a non-negative number, got %q", v),
			})
		} else {
			cfg.AcceptRate = rate
		}
	}

	if v := os.Getenv("VNCSLOTS_ACCEPT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil || burst < 1 {
			errs = append(errs, ValidationError{
				Field:   "VNCSLOTS_ACCEPT_BURST",
				Message: fmt.Sprintf("must be a positive integer, got %q", v),
			})
		} else {
			cfg.AcceptBurst = burst
		}
	}

	if err := cfg.Validate(); err != nil {
		var verrs ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			errs = append(errs, verrs...)
		}
	}

	if len(errs) > 0 {
		return nil, configurationError("LoadConfig", "invalid configuration", errs)
	}
	return cfg, nil
}

func asValidationErrors(err error, out *ValidationErrors) bool {
	verrs, ok := err.(ValidationErrors)
	if ok {
		*out = verrs
	}
	return ok
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.ListenAddr == "" && c.WebSocketAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "ListenAddr",
			Message: "at least one of ListenAddr and WebSocketAddr must be set",
		})
	}
	if c.AssetDir == "" {
		errs = append(errs, ValidationError{
			Field:   "AssetDir",
			Message: "asset directory must be set",
		})
	}
	if c.StatsPath == "" {
		errs = append(errs, ValidationError{
			Field:   "StatsPath",
			Message: "stats path must be set",
		})
	}
	if c.AcceptRate < 0 {
		errs = append(errs, ValidationError{
			Field:   "AcceptRate",
			Message: "accept rate must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
