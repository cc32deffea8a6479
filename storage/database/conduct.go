package database

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core/conduct"
)

type violationRepository struct {
	store documentStore
}

var _ conduct.Repository = (*violationRepository)(nil)

func NewViolationRepository(db *sqlx.DB) conduct.Repository {
	return &violationRepository{store: documentStore{db: db}}
}

func (repo *violationRepository) CreateViolation(v conduct.Violation) (conduct.Violation, error) {
	if err := repo.store.upsert(collViolations, v.ID, v); err != nil {
		return conduct.Violation{}, err
	}
	return v, nil
}

func (repo *violationRepository) QueryAllViolations() ([]conduct.Violation, error) {
	return repo.list("")
}

func (repo *violationRepository) GetViolationByID(id string) (conduct.Violation, error) {
	raw, err := repo.store.getWhere(collViolations, `id = $2`, id)
	if err == sql.ErrNoRows {
		return conduct.Violation{}, conduct.ErrNotFound
	}
	if err != nil {
		return conduct.Violation{}, errors.Wrap(err, "getting violation")
	}
	var v conduct.Violation
	if err := json.Unmarshal(raw, &v); err != nil {
		return conduct.Violation{}, errors.Wrap(err, "decoding violation")
	}
	return v, nil
}

func (repo *violationRepository) FilterViolationsByStudent(code string) ([]conduct.Violation, error) {
	return repo.list(`doc ->> 'student_code' = $2`, code)
}

func (repo *violationRepository) HasViolation(code, vtype, date string) (bool, error) {
	return repo.store.existsWhere(collViolations,
		`doc ->> 'student_code' = $2 AND doc ->> 'type' = $3 AND doc ->> 'date' = $4`,
		code, vtype, date)
}

func (repo *violationRepository) UpdateViolation(v conduct.Violation) (conduct.Violation, error) {
	if _, err := repo.GetViolationByID(v.ID); err != nil {
		return conduct.Violation{}, err
	}
	if err := repo.store.upsert(collViolations, v.ID, v); err != nil {
		return conduct.Violation{}, err
	}
	return v, nil
}

func (repo *violationRepository) DeleteViolationsByID(ids ...string) error {
	return repo.store.deleteByID(collViolations, ids...)
}

func (repo *violationRepository) list(where string, args ...interface{}) ([]conduct.Violation, error) {
	docs, err := repo.store.listWhere(collViolations, where, args...)
	if err != nil {
		return nil, err
	}
	violations := make([]conduct.Violation, 0, len(docs))
	for _, raw := range docs {
		var v conduct.Violation
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, errors.Wrap(err, "decoding violation")
		}
		violations = append(violations, v)
	}
	return violations, nil
}
