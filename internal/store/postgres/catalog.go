package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// linkNamed upserts each name into a lookup table and links the
// practitioner to it through a join table. The DO UPDATE clause makes
// the RETURNING id work for rows that already existed.
func linkNamed(ctx context.Context, db bun.IDB, practitionerID uuid.UUID, names []string, lookupTable, joinTable, fkColumn string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		err = db.NewRaw(
			"INSERT INTO "+lookupTable+" (id, name) VALUES (?, ?) "+
				"ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id",
			id, name,
		).Scan(ctx, &id)
		if err != nil {
			return err
		}
		_, err = db.NewRaw(
			"INSERT INTO "+joinTable+" (practitioner_id, "+fkColumn+") VALUES (?, ?) "+
				"ON CONFLICT DO NOTHING",
			practitionerID, id,
		).Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// namesFor reads the linked lookup names for one practitioner.
func namesFor(ctx context.Context, db bun.IDB, practitionerID uuid.UUID, lookupTable, joinTable, fkColumn string) ([]string, error) {
	var names []string
	err := db.NewRaw(
		"SELECT l.name FROM "+lookupTable+" l "+
			"JOIN "+joinTable+" j ON j."+fkColumn+" = l.id "+
			"WHERE j.practitioner_id = ?",
		practitionerID,
	).Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return names, nil
}
