package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const petColumns = `id, tenant_id, customer_id, name, species, breed, gender, date_of_birth, weight,
chip_id, vaccination_status, allergies, medical_notes, behavior_notes, photo_key,
created_at, updated_at, deleted_at`

func scanPet(row pgx.Row) (Pet, error) {
	var i Pet
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.CustomerID,
		&i.Name,
		&i.Species,
		&i.Breed,
		&i.Gender,
		&i.DateOfBirth,
		&i.Weight,
		&i.ChipID,
		&i.VaccinationStatus,
		&i.Allergies,
		&i.MedicalNotes,
		&i.BehaviorNotes,
		&i.PhotoKey,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createPet = `-- name: CreatePet :one
INSERT INTO pets (tenant_id, customer_id, name, species, breed, gender, date_of_birth, weight,
                  chip_id, vaccination_status, allergies, medical_notes, behavior_notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + petColumns

type CreatePetParams struct {
	TenantID          uuid.UUID     `json:"tenant_id"`
	CustomerID        uuid.UUID     `json:"customer_id"`
	Name              string        `json:"name"`
	Species           string        `json:"species"`
	Breed             pgtype.Text   `json:"breed"`
	Gender            string        `json:"gender"`
	DateOfBirth       pgtype.Date   `json:"date_of_birth"`
	Weight            pgtype.Float8 `json:"weight"`
	ChipID            pgtype.Text   `json:"chip_id"`
	VaccinationStatus pgtype.Text   `json:"vaccination_status"`
	Allergies         []string      `json:"allergies"`
	MedicalNotes      pgtype.Text   `json:"medical_notes"`
	BehaviorNotes     pgtype.Text   `json:"behavior_notes"`
}

func (q *Queries) CreatePet(ctx context.Context, arg CreatePetParams) (Pet, error) {
	row := q.db.QueryRow(ctx, createPet,
		arg.TenantID,
		arg.CustomerID,
		arg.Name,
		arg.Species,
		arg.Breed,
		arg.Gender,
		arg.DateOfBirth,
		arg.Weight,
		arg.ChipID,
		arg.VaccinationStatus,
		arg.Allergies,
		arg.MedicalNotes,
		arg.BehaviorNotes,
	)
	return scanPet(row)
}

const getPetByID = `-- name: GetPetByID :one
SELECT ` + petColumns + ` FROM pets
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetPetByID(ctx context.Context, id uuid.UUID) (Pet, error) {
	row := q.db.QueryRow(ctx, getPetByID, id)
	return scanPet(row)
}

const listPets = `-- name: ListPets :many
SELECT ` + petColumns + ` FROM pets
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::uuid IS NULL OR customer_id = $2)
  AND ($3::text IS NULL OR species = $3)
ORDER BY name, id
LIMIT $4 OFFSET $5`

type ListPetsParams struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	CustomerID *uuid.UUID  `json:"customer_id"`
	Species    pgtype.Text `json:"species"`
	Limit      int32       `json:"limit"`
	Offset     int32       `json:"offset"`
}

func (q *Queries) ListPets(ctx context.Context, arg ListPetsParams) ([]Pet, error) {
	rows, err := q.db.Query(ctx, listPets, arg.TenantID, arg.CustomerID, arg.Species, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pet
	for rows.Next() {
		i, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPets = `-- name: CountPets :one
SELECT count(*) FROM pets
WHERE tenant_id = $1
  AND deleted_at IS NULL
  AND ($2::uuid IS NULL OR customer_id = $2)
  AND ($3::text IS NULL OR species = $3)`

type CountPetsParams struct {
	TenantID   uuid.UUID   `json:"tenant_id"`
	CustomerID *uuid.UUID  `json:"customer_id"`
	Species    pgtype.Text `json:"species"`
}

func (q *Queries) CountPets(ctx context.Context, arg CountPetsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countPets, arg.TenantID, arg.CustomerID, arg.Species)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updatePet = `-- name: UpdatePet :one
UPDATE pets
SET customer_id = $2,
    name = $3,
    species = $4,
    breed = $5,
    gender = $6,
    date_of_birth = $7,
    weight = $8,
    chip_id = $9,
    vaccination_status = $10,
    allergies = $11,
    medical_notes = $12,
    behavior_notes = $13,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + petColumns

type UpdatePetParams struct {
	ID                uuid.UUID     `json:"id"`
	CustomerID        uuid.UUID     `json:"customer_id"`
	Name              string        `json:"name"`
	Species           string        `json:"species"`
	Breed             pgtype.Text   `json:"breed"`
	Gender            string        `json:"gender"`
	DateOfBirth       pgtype.Date   `json:"date_of_birth"`
	Weight            pgtype.Float8 `json:"weight"`
	ChipID            pgtype.Text   `json:"chip_id"`
	VaccinationStatus pgtype.Text   `json:"vaccination_status"`
	Allergies         []string      `json:"allergies"`
	MedicalNotes      pgtype.Text   `json:"medical_notes"`
	BehaviorNotes     pgtype.Text   `json:"behavior_notes"`
}

func (q *Queries) UpdatePet(ctx context.Context, arg UpdatePetParams) (Pet, error) {
	row := q.db.QueryRow(ctx, updatePet,
		arg.ID,
		arg.CustomerID,
		arg.Name,
		arg.Species,
		arg.Breed,
		arg.Gender,
		arg.DateOfBirth,
		arg.Weight,
		arg.ChipID,
		arg.VaccinationStatus,
		arg.Allergies,
		arg.MedicalNotes,
		arg.BehaviorNotes,
	)
	return scanPet(row)
}

const setPetPhoto = `-- name: SetPetPhoto :exec
UPDATE pets SET photo_key = $2, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

type SetPetPhotoParams struct {
	ID       uuid.UUID   `json:"id"`
	PhotoKey pgtype.Text `json:"photo_key"`
}

func (q *Queries) SetPetPhoto(ctx context.Context, arg SetPetPhotoParams) error {
	_, err := q.db.Exec(ctx, setPetPhoto, arg.ID, arg.PhotoKey)
	return err
}

const softDeletePet = `-- name: SoftDeletePet :execrows
UPDATE pets SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeletePet(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, softDeletePet, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
