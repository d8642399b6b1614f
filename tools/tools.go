//go:build tools

package tools

// This file tracks tool dependencies for reproducible builds.
// The goose CLI applies internal/adapters/postgres/migrations by hand:
//
//	goose -dir internal/adapters/postgres/migrations postgres "$DATABASE_URL" status
import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
