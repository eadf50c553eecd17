package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WorkHourRule is one recurring weekly interval during which a
// practitioner accepts bookings. Day codes are ISO-style: 1=Monday ..
// 7=Sunday. Start and end are wall-clock minutes since midnight; the
// interval is used half-open, [start, end).
type WorkHourRule struct {
	bun.BaseModel `bun:"table:work_hour_rules"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	PractitionerID uuid.UUID `bun:"practitioner_id,notnull,type:uuid"`
	DayOfWeek      int       `bun:"day_of_week,notnull"`
	StartMinute    int       `bun:"start_minute,notnull"`
	EndMinute      int       `bun:"end_minute,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (r *WorkHourRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}
