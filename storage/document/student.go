package documentdb

import (
	"time"

	"github.com/YOMIx224/student-conduct-system/core/student"
)

type studentRepository struct {
	coll *collection
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{coll: db.students}
}

func (repo *studentRepository) CheckCodeUniqueness(code string, excludedStudents ...student.Student) error {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return err
	}
	for _, stu := range students {
		if stu.Code == code && !isExcludedStudent(stu, excludedStudents) {
			return student.ErrCodeExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(stu student.Student) (student.Student, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return student.Student{}, err
	}
	students = append(students, stu)
	if err := repo.coll.save(students); err != nil {
		return student.Student{}, err
	}
	return stu, nil
}

func (repo *studentRepository) QueryAllStudents() ([]student.Student, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return student.Student{}, err
	}
	for _, stu := range students {
		if stu.ID == id {
			return stu, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByCode(code string) (student.Student, error) {
	repo.coll.mutex.RLock()
	defer repo.coll.mutex.RUnlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return student.Student{}, err
	}
	for _, stu := range students {
		if stu.Code == code {
			return stu, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(stu student.Student) (student.Student, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return student.Student{}, err
	}
	for i := range students {
		if students[i].ID == stu.ID {
			students[i] = stu
			if err := repo.coll.save(students); err != nil {
				return student.Student{}, err
			}
			return stu, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) SetConductScore(code string, score int) (student.Student, error) {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return student.Student{}, err
	}
	for i := range students {
		if students[i].Code == code {
			students[i].ConductScore = score
			students[i].UpdatedAt = time.Now().UTC()
			if err := repo.coll.save(students); err != nil {
				return student.Student{}, err
			}
			return students[i], nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) DeleteStudentsByID(ids ...string) error {
	repo.coll.mutex.Lock()
	defer repo.coll.mutex.Unlock()

	var students []student.Student
	if err := repo.coll.load(&students); err != nil {
		return err
	}
	kept := students[:0]
	for _, stu := range students {
		if !containsID(ids, stu.ID) {
			kept = append(kept, stu)
		}
	}
	return repo.coll.save(kept)
}

func isExcludedStudent(stu student.Student, excluded []student.Student) bool {
	for _, ex := range excluded {
		if ex.ID == stu.ID {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
