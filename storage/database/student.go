package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core/student"
)

type studentRepository struct {
	store documentStore
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{store: documentStore{db: db}}
}

func (repo *studentRepository) CheckCodeUniqueness(code string, excludedStudents ...student.Student) error {
	raw, err := repo.store.getWhere(collStudents, `doc ->> 'code' = $2`, code)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking code uniqueness")
	}
	var stu student.Student
	if err := json.Unmarshal(raw, &stu); err != nil {
		return errors.Wrap(err, "decoding student")
	}
	for _, ex := range excludedStudents {
		if ex.ID == stu.ID {
			return nil
		}
	}
	return student.ErrCodeExists
}

func (repo *studentRepository) CreateStudent(stu student.Student) (student.Student, error) {
	if err := repo.store.upsert(collStudents, stu.ID, stu); err != nil {
		return student.Student{}, err
	}
	return stu, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	docs, err := repo.store.listWhere(collStudents, "")
	if err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(docs))
	for _, raw := range docs {
		var stu student.Student
		if err := json.Unmarshal(raw, &stu); err != nil {
			return nil, errors.Wrap(err, "decoding student")
		}
		students = append(students, stu)
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	return repo.get(`id = $2`, id)
}

func (repo *studentRepository) GetStudentByCode(code string) (student.Student, error) {
	return repo.get(`doc ->> 'code' = $2`, code)
}

func (repo *studentRepository) UpdateStudent(stu student.Student) (student.Student, error) {
	if _, err := repo.GetStudentByID(stu.ID); err != nil {
		return student.Student{}, err
	}
	if err := repo.store.upsert(collStudents, stu.ID, stu); err != nil {
		return student.Student{}, err
	}
	return stu, nil
}

func (repo *studentRepository) SetConductScore(code string, score int) (student.Student, error) {
	stu, err := repo.GetStudentByCode(code)
	if err != nil {
		return student.Student{}, err
	}
	stu.ConductScore = score
	stu.UpdatedAt = time.Now().UTC()
	if err := repo.store.upsert(collStudents, stu.ID, stu); err != nil {
		return student.Student{}, err
	}
	return stu, nil
}

func (repo *studentRepository) DeleteStudentsByID(ids ...string) error {
	return repo.store.deleteByID(collStudents, ids...)
}

func (repo *studentRepository) get(where string, args ...interface{}) (student.Student, error) {
	raw, err := repo.store.getWhere(collStudents, where, args...)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	var stu student.Student
	if err := json.Unmarshal(raw, &stu); err != nil {
		return student.Student{}, errors.Wrap(err, "decoding student")
	}
	return stu, nil
}
