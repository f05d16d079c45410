package localdb

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteOp is one prepared mutation: a statement plus the table it touches.
// Repositories build these with their Prepare* helpers; nothing executes
// until the whole list is handed to Batch.
type WriteOp struct {
	Table string
	Query string
	Args  []any
}

// Batch commits a heterogeneous list of prepared operations as a single
// unit — either all succeed or none do — and fires exactly one change
// notification per affected table, not one per operation. An empty list is
// a no-op success.
func (s *Store) Batch(ctx context.Context, ops ...WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	touched := make([]string, 0, len(ops))
	seen := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		if _, ok := seen[op.Table]; !ok {
			seen[op.Table] = struct{}{}
			touched = append(touched, op.Table)
		}
	}

	return s.Write(ctx, touched, func(tx *sql.Tx) error {
		for _, op := range ops {
			if _, err := tx.ExecContext(ctx, op.Query, op.Args...); err != nil {
				return fmt.Errorf("batch operation on %s failed: %w", op.Table, err)
			}
		}
		return nil
	})
}
