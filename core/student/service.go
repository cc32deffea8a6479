package student

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core"
)

var (
	// errors
	ErrNotFound   = errors.New("student not found")
	ErrCodeExists = errors.New("a student with this student code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(code string, excludedStudents ...Student) error
		CreateStudent(stu Student) (Student, error)
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id string) (Student, error)
		GetStudentByCode(code string) (Student, error)
		UpdateStudent(stu Student) (Student, error)
		// SetConductScore overwrites the score of the student with the given code.
		SetConductScore(code string, score int) (Student, error)
		DeleteStudentsByID(ids ...string) error
	}

	Service interface {
		Create(actor core.Actor, ns NewStudent) (Student, error)
		QueryAll() ([]Student, error)
		GetByID(id string) (Student, error)
		GetByCode(code string) (Student, error)
		Update(actor core.Actor, id string, us UpdateStudent) (Student, error)
		// PatchScore is the direct staff score edit; ledger flows mutate scores through the conduct service.
		PatchScore(actor core.Actor, id string, score int) (Student, error)
		// Delete removes student records. Their violation records are deliberately
		// left behind; deleting a student has never cascaded.
		Delete(actor core.Actor, ids ...string) error
		CheckUniqueness(code string, excludedStudents ...Student) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(code string, exclStudents ...Student) error {
	if err := svc.repo.CheckCodeUniqueness(code, exclStudents...); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(actor core.Actor, ns NewStudent) (Student, error) {
	if !actor.IsAdmin() {
		return Student{}, core.ErrForbidden
	}

	now := time.Now().UTC()
	stu := Student{
		ID:           uuid.New().String(),
		Code:         ns.Code,
		Name:         ns.Name,
		Class:        ns.Class,
		Department:   ns.Department,
		ConductScore: core.Conf.Conduct.InitialScore,
		Phone:        ns.Phone,
		Email:        ns.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateStudent(stu)
}

func (svc *service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *service) GetByCode(code string) (Student, error) {
	return svc.repo.GetStudentByCode(core.CleanString(code))
}

func (svc *service) Update(actor core.Actor, id string, us UpdateStudent) (Student, error) {
	if !actor.IsAdmin() {
		return Student{}, core.ErrForbidden
	}

	orig, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}

	orig.Code = us.Code
	orig.Name = us.Name
	orig.Class = us.Class
	orig.Department = us.Department
	orig.Phone = us.Phone
	orig.Email = us.Email
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(orig)
}

func (svc *service) PatchScore(actor core.Actor, id string, score int) (Student, error) {
	if !actor.IsStaff() {
		return Student{}, core.ErrForbidden
	}

	stu, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}
	return svc.repo.SetConductScore(stu.Code, score)
}

func (svc *service) Delete(actor core.Actor, ids ...string) error {
	if !actor.IsAdmin() {
		return core.ErrForbidden
	}
	return svc.repo.DeleteStudentsByID(ids...)
}
