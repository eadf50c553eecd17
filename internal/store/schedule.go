package store

import (
	"context"

	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
)

// WorkScheduleRepository holds the recurring weekly availability rules.
type WorkScheduleRepository interface {
	// ReplaceRules atomically deletes every rule the practitioner has
	// and inserts the given set, returning the stored rules. A reader
	// must never observe the practitioner with zero rules mid-update.
	ReplaceRules(ctx context.Context, practitionerID uuid.UUID, rules []domain.WorkHourRule) ([]domain.WorkHourRule, error)

	RulesForDay(ctx context.Context, practitionerID uuid.UUID, dayOfWeek int) ([]domain.WorkHourRule, error)
	RulesFor(ctx context.Context, practitionerID uuid.UUID) ([]domain.WorkHourRule, error)
}
