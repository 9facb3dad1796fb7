// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the server's runtime configuration,
// the way cc-backend's internal/config does: a struct of fields with
// defaults, optionally overridden by a JSON file, validated against a
// JSON Schema before any field is trusted.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds every knob the server's entrypoint (cmd/wirekvd) needs.
// Zero value is never used directly; call Default() or Load().
type Config struct {
	// ListenAddr is where the wire protocol TCP listener binds.
	// Default: "0.0.0.0:6379" per the wire protocol's default server
	// surface.
	ListenAddr string `json:"listen_addr"`

	// AdminAddr is where the read-only HTTP admin surface
	// (/healthz, /metrics, /debug/store) binds. Default:
	// "127.0.0.1:6380".
	AdminAddr string `json:"admin_addr"`

	// MaxConnections bounds concurrently accepted connections; the
	// accept loop blocks new accepts once this many are live.
	MaxConnections int `json:"max_connections"`

	// ConnReadTimeout / ConnWriteTimeout are loaded and validated but not
	// passed to the accept loop or the connection loop, so no socket read
	// or write deadline is set whatever their value.
	ConnReadTimeout  time.Duration `json:"conn_read_timeout"`
	ConnWriteTimeout time.Duration `json:"conn_write_timeout"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level"`

	// User / Group, if set, are dropped into at startup, before the wire
	// and admin listeners bind (see internal/runtimeEnv.DropPrivileges).
	User  string `json:"user"`
	Group string `json:"group"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ListenAddr:     "0.0.0.0:6379",
		AdminAddr:      "127.0.0.1:6380",
		MaxConnections: 10000,
		LogLevel:       "info",
	}
}

// Schema is the JSON Schema every loaded config file is validated
// against before its fields are unmarshaled into the live Config.
const Schema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"listen_addr": {"type": "string"},
		"admin_addr": {"type": "string"},
		"max_connections": {"type": "integer", "minimum": 1},
		"conn_read_timeout": {"type": "integer", "minimum": 0},
		"conn_write_timeout": {"type": "integer", "minimum": 0},
		"log_level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
		"user": {"type": "string"},
		"group": {"type": "string"}
	}
}`

// Load reads path as JSON, validates it against Schema, and returns the
// result merged over Default(). An empty path returns Default()
// unchanged, matching the entrypoint's "config file is optional" flag
// behavior.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	Validate(Schema, raw)

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
