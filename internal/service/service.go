// Package service implements business logic on top of ports.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/middleware"
	"github.com/atelierhq/atelier/internal/port/database"
)

// newID produces a UUID v4 string.
func newID() string {
	return uuid.NewString()
}

// nextDisplayID allocates the next per-tenant display id for an entity kind,
// e.g. PR-0042.
func nextDisplayID(ctx context.Context, store database.SequenceStore, entity, prefix string) (string, error) {
	n, err := store.NextDisplayID(ctx, entity)
	if err != nil {
		return "", fmt.Errorf("allocate display id: %w", err)
	}
	return domain.FormatDisplayID(prefix, n), nil
}

// actorID returns the acting user's id from the request context, or "".
func actorID(ctx context.Context) string {
	idc := middleware.IdentityFromContext(ctx)
	if idc == nil {
		return ""
	}
	return idc.User.ID
}
