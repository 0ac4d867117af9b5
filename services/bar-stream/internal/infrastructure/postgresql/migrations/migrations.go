// Package migrations holds the PostgreSQL schema of the bar store.
package migrations

import "embed"

// FS contains the versioned up and down scripts.
//
//go:embed *.sql
var FS embed.FS
