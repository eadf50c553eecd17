package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Book(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:              appt.ID,
		PractitionerID:  appt.PractitionerID,
		PatientID:       appt.PatientID,
		AddressID:       appt.AddressID,
		StartTime:       appt.StartTime,
		DurationMinutes: appt.DurationMinutes,
		Status:          domain.AppointmentScheduled,
	}

	err := runInAgendaTx(ctx, r.db, appt.PractitionerID, func(ctx context.Context, tx bun.Tx) error {
		// Re-check under the lock: a concurrent booking may have won
		// the slot between the caller's pre-check and this transaction.
		exists, err := tx.NewSelect().
			Model((*domain.Appointment)(nil)).
			Where("practitioner_id = ?", appt.PractitionerID).
			Where("start_time = ?", appt.StartTime).
			Where("status = ?", domain.AppointmentScheduled).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return store.ErrConflict
		}

		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return store.ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r *AppointmentRepo) FindConflict(ctx context.Context, practitionerID uuid.UUID, start time.Time) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.NewSelect().
		Model(&a).
		Where("practitioner_id = ?", practitionerID).
		Where("start_time = ?", start).
		Where("status = ?", domain.AppointmentScheduled).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return a, nil
}

func (r *AppointmentRepo) ListForDay(ctx context.Context, practitionerID uuid.UUID, dayStart, dayEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("practitioner_id = ?", practitionerID).
		Where("start_time >= ?", dayStart).
		Where("start_time <= ?", dayEnd).
		Where("status = ?", domain.AppointmentScheduled).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) GetWithActors(ctx context.Context, id uuid.UUID) (domain.AppointmentWithActors, error) {
	var a domain.Appointment
	err := r.db.NewSelect().
		Model(&a).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AppointmentWithActors{}, store.ErrNotFound
		}
		return domain.AppointmentWithActors{}, err
	}

	out := domain.AppointmentWithActors{Appointment: a}

	err = r.db.NewSelect().
		Model((*domain.Patient)(nil)).
		Column("user_id").
		Where("id = ?", a.PatientID).
		Scan(ctx, &out.PatientUserID)
	if err != nil {
		return domain.AppointmentWithActors{}, err
	}

	err = r.db.NewSelect().
		Model((*domain.Practitioner)(nil)).
		Column("user_id").
		Where("id = ?", a.PractitionerID).
		Scan(ctx, &out.PractitionerUserID)
	if err != nil {
		return domain.AppointmentWithActors{}, err
	}

	return out, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus) (domain.Appointment, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("status = ?", to).
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}

	return r.getByID(ctx, id)
}

func (r *AppointmentRepo) SetRating(ctx context.Context, id uuid.UUID, score int, comment *string) (domain.Appointment, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("rating_score = ?", score).
		Set("rating_comment = ?", comment).
		Set("updated_at = now()").
		Where("id = ?", id).
		Where("rating_score IS NULL").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}

	return r.getByID(ctx, id)
}

func (r *AppointmentRepo) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.PatientAppointment, error) {
	var appts []domain.Appointment
	err := r.db.NewSelect().
		Model(&appts).
		Where("patient_id = ?", patientID).
		Where("status = ?", domain.AppointmentScheduled).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return []domain.PatientAppointment{}, nil
	}

	practitionerIDs := make([]uuid.UUID, 0, len(appts))
	addressIDs := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		practitionerIDs = append(practitionerIDs, a.PractitionerID)
		addressIDs = append(addressIDs, a.AddressID)
	}

	var practitioners []domain.Practitioner
	err = r.db.NewSelect().
		Model(&practitioners).
		Where("id IN (?)", bun.In(practitionerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	byPractitioner := make(map[uuid.UUID]domain.Practitioner, len(practitioners))
	for _, p := range practitioners {
		byPractitioner[p.ID] = p
	}

	var addresses []domain.Address
	err = r.db.NewSelect().
		Model(&addresses).
		Where("id IN (?)", bun.In(addressIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	byAddress := make(map[uuid.UUID]domain.Address, len(addresses))
	for _, a := range addresses {
		byAddress[a.ID] = a
	}

	out := make([]domain.PatientAppointment, 0, len(appts))
	for _, a := range appts {
		row := domain.PatientAppointment{Appointment: a, Address: byAddress[a.AddressID]}
		if p, ok := byPractitioner[a.PractitionerID]; ok {
			row.PractitionerName = p.Name
			row.PractitionerPhotoURL = p.PhotoURL
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *AppointmentRepo) ActivePatientIDs(ctx context.Context, practitionerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		ColumnExpr("DISTINCT patient_id").
		Where("practitioner_id = ?", practitionerID).
		Where("status = ?", domain.AppointmentScheduled).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *AppointmentRepo) PractitionerIDsWithMinRating(ctx context.Context, min float64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Column("practitioner_id").
		Where("rating_score IS NOT NULL").
		Group("practitioner_id").
		Having("AVG(rating_score) >= ?", min).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *AppointmentRepo) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		ColumnExpr("COALESCE(AVG(rating_score), 0)").
		Where("rating_score IS NOT NULL").
		Scan(ctx, &avg)
	if err != nil {
		return 0, err
	}
	return avg, nil
}

func (r *AppointmentRepo) getByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.NewSelect().
		Model(&a).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return a, nil
}
