package database

import _ "embed"

// Schema is the full DDL for the record store, applied by cmd/seed.
//
//go:embed schema.sql
var Schema string
