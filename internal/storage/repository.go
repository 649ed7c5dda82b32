// Package storage groups data access by domain behind a single aggregate
// so callers can run multi-repository work in one transaction.
package storage

import (
	"context"

	"github.com/eventforge/server/internal/domain/events"
	"github.com/eventforge/server/internal/domain/users"
)

type Repository interface {
	Users() users.Repository
	Events() events.Repository

	// WithTx runs fn against a transaction-bound view of the repository.
	// The transaction commits when fn returns nil and rolls back on error.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
