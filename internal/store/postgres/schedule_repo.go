package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"medagenda/backend/internal/domain"
)

type WorkScheduleRepo struct {
	db *bun.DB
}

func NewWorkScheduleRepo(db *bun.DB) *WorkScheduleRepo {
	return &WorkScheduleRepo{db: db}
}

func (r *WorkScheduleRepo) ReplaceRules(ctx context.Context, practitionerID uuid.UUID, rules []domain.WorkHourRule) ([]domain.WorkHourRule, error) {
	var out []domain.WorkHourRule
	err := runInAgendaTx(ctx, r.db, practitionerID, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*domain.WorkHourRule)(nil)).
			Where("practitioner_id = ?", practitionerID).
			Exec(ctx)
		if err != nil {
			return err
		}

		if len(rules) > 0 {
			rows := make([]domain.WorkHourRule, len(rules))
			for i, rule := range rules {
				rule.PractitionerID = practitionerID
				rows[i] = rule
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}

		return tx.NewSelect().
			Model(&out).
			Where("practitioner_id = ?", practitionerID).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WorkScheduleRepo) RulesForDay(ctx context.Context, practitionerID uuid.UUID, dayOfWeek int) ([]domain.WorkHourRule, error) {
	var rows []domain.WorkHourRule
	err := r.db.NewSelect().
		Model(&rows).
		Where("practitioner_id = ?", practitionerID).
		Where("day_of_week = ?", dayOfWeek).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *WorkScheduleRepo) RulesFor(ctx context.Context, practitionerID uuid.UUID) ([]domain.WorkHourRule, error) {
	var rows []domain.WorkHourRule
	err := r.db.NewSelect().
		Model(&rows).
		Where("practitioner_id = ?", practitionerID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
