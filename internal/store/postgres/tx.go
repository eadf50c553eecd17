package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// runInAgendaTx runs fn inside a transaction that first takes a
// transaction-scoped advisory lock keyed on the practitioner. All
// writes that touch a practitioner's agenda (bookings, work-grid
// replacement) go through this, so a conflict check and the insert it
// guards are atomic with respect to concurrent requests for the same
// practitioner.
func runInAgendaTx(ctx context.Context, db *bun.DB, practitionerID uuid.UUID, fn func(ctx context.Context, tx bun.Tx) error) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockAgenda(ctx, tx, practitionerID); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func lockAgenda(ctx context.Context, tx bun.Tx, practitionerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", practitionerID.String()).Exec(ctx)
	return err
}
