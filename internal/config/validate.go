// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wirekv/wirekv/internal/kvlog"
)

// Validate compiles schema and checks instance against it, terminating
// the process on failure. Config validation only ever runs once at
// startup before the server accepts any connection, so a fatal exit here
// mirrors the teacher's own config-time-only use of log.Fatal.
func Validate(schema string, instance json.RawMessage) {
	sch, err := jsonschema.CompileString("config.schema.json", schema)
	if err != nil {
		kvlog.Fatalf("config: invalid schema: %v", err)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		kvlog.Fatalf("config: invalid json: %v", err)
	}

	if err := sch.Validate(v); err != nil {
		kvlog.Fatalf("config: %v", err)
	}
}
