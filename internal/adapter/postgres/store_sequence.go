package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// NextDisplayID increments and returns the per-tenant counter for one
// entity kind. The upsert keeps the first allocation race-free.
func (s *Store) NextDisplayID(ctx context.Context, entity string) (int64, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sequences (tenant_id, entity, value)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (tenant_id, entity) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		tenantFromCtx(ctx), entity)

	var value int64
	if err := row.Scan(&value); err != nil {
		return 0, fmt.Errorf("next display id for %s: %w", entity, err)
	}
	return value, nil
}

// DeleteCloneBatch hard-deletes every row inserted under one clone-batch
// marker, bottom-up so child FKs never dangle mid-cleanup. Clone garbage
// was never linked from outside its own tree, so hard deletion is safe.
func (s *Store) DeleteCloneBatch(ctx context.Context, batchID string) error {
	tid := tenantFromCtx(ctx)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for _, table := range []string{"requirements", "pitches", "sets", "phases", "projects"} {
			if _, err := tx.Exec(ctx,
				`DELETE FROM `+table+` WHERE clone_batch_id = $1 AND tenant_id = $2`,
				batchID, tid); err != nil {
				return fmt.Errorf("delete clone batch %s from %s: %w", batchID, table, err)
			}
		}
		return nil
	})
}
