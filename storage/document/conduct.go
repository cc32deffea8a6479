package documentdb

import (
	"github.com/YOMIx224/student-conduct-system/core/conduct"
)

type violationRepository struct {
	coll *collection
}

var _ conduct.Repository = (*violationRepository)(nil)

func NewViolationRepository(db *DB) conduct.Repository {
	return &violationRepository{coll: db.violations}
}

func (repo *violationRepository) CreateViolation(v conduct.Violation) (conduct.Violation, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return conduct.Violation{}, err
	}
	violations = append(violations, v)
	if err := repo.coll.save(violations); err != nil {
		return conduct.Violation{}, err
	}
	return v, nil
}

func (repo *violationRepository) QueryAllViolations() ([]conduct.Violation, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return nil, err
	}
	return violations, nil
}

func (repo *violationRepository) GetViolationByID(id string) (conduct.Violation, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return conduct.Violation{}, err
	}
	for _, v := range violations {
		if v.ID == id {
			return v, nil
		}
	}
	return conduct.Violation{}, conduct.ErrNotFound
}

func (repo *violationRepository) FilterViolationsByStudent(code string) ([]conduct.Violation, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return nil, err
	}
	matched := make([]conduct.Violation, 0)
	for _, v := range violations {
		if v.StudentCode == code {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func (repo *violationRepository) HasViolation(code, vtype, date string) (bool, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return false, err
	}
	for _, v := range violations {
		if v.StudentCode == code && v.Type == vtype && v.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (repo *violationRepository) UpdateViolation(v conduct.Violation) (conduct.Violation, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return conduct.Violation{}, err
	}
	for i := range violations {
		if violations[i].ID == v.ID {
			violations[i] = v
			if err := repo.coll.save(violations); err != nil {
				return conduct.Violation{}, err
			}
			return v, nil
		}
	}
	return conduct.Violation{}, conduct.ErrNotFound
}

func (repo *violationRepository) DeleteViolationsByID(ids ...string) error {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var violations []conduct.Violation
	if err := repo.coll.load(&violations); err != nil {
		return err
	}
	kept := violations[:0]
	for _, v := range violations {
		if !containsID(ids, v.ID) {
			kept = append(kept, v)
		}
	}
	return repo.coll.save(kept)
}
