// Package db embeds the database schema.
package db

import _ "embed"

// Schema holds the idempotent DDL for every table the service uses.
//
//go:embed migrations/001_schema.sql
var Schema string
