package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/store"
)

type AccountRepo struct {
	db *bun.DB
}

func NewAccountRepo(db *bun.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, store.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *AccountRepo) PatientByCPF(ctx context.Context, cpf string) (domain.Patient, error) {
	var p domain.Patient
	err := r.db.NewSelect().
		Model(&p).
		Where("cpf = ?", cpf).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Patient{}, store.ErrNotFound
		}
		return domain.Patient{}, err
	}
	return p, nil
}

func (r *AccountRepo) PractitionerByCPF(ctx context.Context, cpf string) (domain.Practitioner, error) {
	var p domain.Practitioner
	err := r.db.NewSelect().
		Model(&p).
		Where("cpf = ?", cpf).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Practitioner{}, store.ErrNotFound
		}
		return domain.Practitioner{}, err
	}
	return p, nil
}

func (r *AccountRepo) PatientByUserID(ctx context.Context, userID uuid.UUID) (domain.Patient, error) {
	var p domain.Patient
	err := r.db.NewSelect().
		Model(&p).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Patient{}, store.ErrNotFound
		}
		return domain.Patient{}, err
	}
	return p, nil
}

func (r *AccountRepo) PractitionerByUserID(ctx context.Context, userID uuid.UUID) (domain.Practitioner, error) {
	var p domain.Practitioner
	err := r.db.NewSelect().
		Model(&p).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Practitioner{}, store.ErrNotFound
		}
		return domain.Practitioner{}, err
	}
	return p, nil
}

func (r *AccountRepo) CreatePatientAccount(ctx context.Context, in store.NewPatientAccount) (domain.User, domain.Patient, error) {
	user := in.User
	address := in.Address
	patient := in.Patient
	phone := in.Phone

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return mapUniqueViolation(err, store.ErrEmailInUse)
		}
		if _, err := tx.NewInsert().Model(&address).Exec(ctx); err != nil {
			return err
		}
		patient.UserID = user.ID
		patient.AddressID = address.ID
		if _, err := tx.NewInsert().Model(&patient).Exec(ctx); err != nil {
			return mapUniqueViolation(err, store.ErrCPFInUse)
		}
		phone.UserID = user.ID
		if _, err := tx.NewInsert().Model(&phone).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, domain.Patient{}, err
	}
	return user, patient, nil
}

func (r *AccountRepo) CreatePractitionerAccount(ctx context.Context, in store.NewPractitionerAccount) (domain.User, domain.Practitioner, error) {
	user := in.User
	address := in.Address
	practitioner := in.Practitioner
	phone := in.Phone

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return mapUniqueViolation(err, store.ErrEmailInUse)
		}
		if _, err := tx.NewInsert().Model(&address).Exec(ctx); err != nil {
			return err
		}
		practitioner.UserID = user.ID
		practitioner.AddressID = address.ID
		if _, err := tx.NewInsert().Model(&practitioner).Exec(ctx); err != nil {
			return mapUniqueViolation(err, store.ErrCPFInUse)
		}
		phone.UserID = user.ID
		if _, err := tx.NewInsert().Model(&phone).Exec(ctx); err != nil {
			return err
		}
		if err := linkNamed(ctx, tx, practitioner.ID, in.Specialties, "specialties", "practitioner_specialties", "specialty_id"); err != nil {
			return err
		}
		if err := linkNamed(ctx, tx, practitioner.ID, in.Educations, "educations", "practitioner_educations", "education_id"); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, domain.Practitioner{}, err
	}
	return user, practitioner, nil
}

func (r *AccountRepo) PatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Patient, error) {
	if len(ids) == 0 {
		return []domain.Patient{}, nil
	}
	var rows []domain.Patient
	err := r.db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AccountRepo) CountPatients(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*domain.Patient)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func (r *AccountRepo) CountPractitioners(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*domain.Practitioner)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func mapUniqueViolation(err error, mapped error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return mapped
	}
	return err
}
