package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/store"
)

type PractitionerRepo struct {
	db *bun.DB
}

func NewPractitionerRepo(db *bun.DB) *PractitionerRepo {
	return &PractitionerRepo{db: db}
}

func (r *PractitionerRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Practitioner, error) {
	var p domain.Practitioner
	err := r.db.NewSelect().
		Model(&p).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Practitioner{}, store.ErrNotFound
		}
		return domain.Practitioner{}, err
	}
	return p, nil
}

func (r *PractitionerRepo) Search(ctx context.Context, filter store.PractitionerFilter) ([]domain.PractitionerListing, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []domain.PractitionerListing{}, nil
	}

	var practitioners []domain.Practitioner
	q := r.db.NewSelect().Model(&practitioners)

	if filter.IDs != nil {
		q = q.Where("id IN (?)", bun.In(filter.IDs))
	}
	if filter.NameContains != "" {
		q = q.Where("name ILIKE ?", "%"+filter.NameContains+"%")
	}
	if filter.MaxFee != nil {
		q = q.Where("consultation_fee <= ?", *filter.MaxFee)
	}
	if filter.AcceptsInsurance != nil {
		q = q.Where("accepts_insurance = ?", *filter.AcceptsInsurance)
	}
	if filter.HomeVisits != nil {
		q = q.Where("home_visits = ?", *filter.HomeVisits)
	}
	if filter.City != "" || filter.State != "" {
		sub := r.db.NewSelect().
			Model((*domain.Address)(nil)).
			Column("id")
		if filter.City != "" {
			sub = sub.Where("city ILIKE ?", filter.City)
		}
		if filter.State != "" {
			sub = sub.Where("state ILIKE ?", filter.State)
		}
		q = q.Where("address_id IN (?)", sub)
	}
	if filter.Specialty != "" {
		sub := r.db.NewSelect().
			Table("practitioner_specialties").
			Column("practitioner_id").
			Join("JOIN specialties AS s ON s.id = specialty_id").
			Where("s.name ILIKE ?", "%"+filter.Specialty+"%")
		q = q.Where("id IN (?)", sub)
	}
	if filter.Education != "" {
		sub := r.db.NewSelect().
			Table("practitioner_educations").
			Column("practitioner_id").
			Join("JOIN educations AS e ON e.id = education_id").
			Where("e.name ILIKE ?", "%"+filter.Education+"%")
		q = q.Where("id IN (?)", sub)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if len(practitioners) == 0 {
		return []domain.PractitionerListing{}, nil
	}

	out := make([]domain.PractitionerListing, 0, len(practitioners))
	for _, p := range practitioners {
		listing := domain.PractitionerListing{Practitioner: p}

		err := r.db.NewSelect().
			Model(&listing.Address).
			Where("id = ?", p.AddressID).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		specialties, err := namesFor(ctx, r.db, p.ID, "specialties", "practitioner_specialties", "specialty_id")
		if err != nil {
			return nil, err
		}
		listing.Specialties = specialties

		var scores []int
		err = r.db.NewSelect().
			Model((*domain.Appointment)(nil)).
			Column("rating_score").
			Where("practitioner_id = ?", p.ID).
			Where("rating_score IS NOT NULL").
			Scan(ctx, &scores)
		if err != nil {
			return nil, err
		}
		listing.RatingScores = scores

		out = append(out, listing)
	}
	return out, nil
}

func (r *PractitionerRepo) UpdateProfile(ctx context.Context, id uuid.UUID, changes store.PractitionerProfileUpdate) (domain.Practitioner, error) {
	var updated domain.Practitioner
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*domain.Practitioner)(nil)).
			Set("updated_at = now()").
			Where("id = ?", id)
		if changes.Description != nil {
			q = q.Set("description = ?", *changes.Description)
		}
		if changes.ConsultationFee != nil {
			q = q.Set("consultation_fee = ?", *changes.ConsultationFee)
		}
		if changes.AcceptsInsurance != nil {
			q = q.Set("accepts_insurance = ?", *changes.AcceptsInsurance)
		}
		if changes.HomeVisits != nil {
			q = q.Set("home_visits = ?", *changes.HomeVisits)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}

		if changes.Tags != nil {
			if _, err := tx.NewRaw(
				"DELETE FROM practitioner_tags WHERE practitioner_id = ?", id,
			).Exec(ctx); err != nil {
				return err
			}
			if err := linkNamed(ctx, tx, id, changes.Tags, "tags", "practitioner_tags", "tag_id"); err != nil {
				return err
			}
		}
		if changes.Languages != nil {
			if _, err := tx.NewRaw(
				"DELETE FROM practitioner_languages WHERE practitioner_id = ?", id,
			).Exec(ctx); err != nil {
				return err
			}
			if err := linkNamed(ctx, tx, id, changes.Languages, "languages", "practitioner_languages", "language_id"); err != nil {
				return err
			}
		}

		return tx.NewSelect().Model(&updated).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return domain.Practitioner{}, err
	}
	return updated, nil
}

func (r *PractitionerRepo) SetPhotoURL(ctx context.Context, id uuid.UUID, url *string) (domain.Practitioner, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Practitioner)(nil)).
		Set("photo_url = ?", url).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Practitioner{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Practitioner{}, err
	}
	if affected == 0 {
		return domain.Practitioner{}, store.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
