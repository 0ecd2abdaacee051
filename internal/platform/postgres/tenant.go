// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// # Tenant Partition Scoping

// WithSchema runs fn inside a transaction whose search_path is pinned to the
// given tenant schema. The pin uses SET LOCAL, so it ends with the
// transaction and never leaks to other pool users.
//
// # Isolation Invariant
//
// A single call touches exactly one partition. Code that needs both the
// shared partition and a tenant partition must open two separate scopes,
// never one transaction crossing schemas.
func WithSchema(ctx context.Context, pool *pgxpool.Pool, schema string, fn func(tx pgx.Tx) error) error {
	transaction, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin tenant transaction: %w", err)
	}

	// Roll back on every non-commit exit path.
	defer func() { _ = transaction.Rollback(ctx) }()

	// Sanitize defends against schema names sourced from user-facing fields.
	setPath := fmt.Sprintf("SET LOCAL search_path TO %s", pgx.Identifier{schema}.Sanitize())
	if _, err := transaction.Exec(ctx, setPath); err != nil {
		return fmt.Errorf("postgres: failed to set search_path to %q: %w", schema, err)
	}

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit tenant transaction: %w", err)
	}

	return nil
}
