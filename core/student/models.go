package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/YOMIx224/student-conduct-system/core"
)

// Student is a tracked student. ID is the internal record key; Code is the
// human-facing student code and the join key violation records point at.
type Student struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Class        string    `json:"class"`
	Department   string    `json:"department"`
	ConductScore int       `json:"conduct_score"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to enroll a new Student.
// The conduct score is never an input; every student starts at the configured initial score.
type NewStudent struct {
	Code       string `json:"code" validate:"required,alphanum_"`
	Name       string `json:"name" validate:"required"`
	Class      string `json:"class"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc Service) error {
	ns.Code = core.CleanString(ns.Code)
	ns.Name = core.CleanString(ns.Name)
	ns.Class = core.CleanString(ns.Class)
	ns.Department = core.CleanString(ns.Department)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.Code)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// ID and ConductScore are preserved through this operation; the score only moves via the conduct ledger.
type UpdateStudent struct {
	Code       string `json:"code" validate:"required,alphanum_"`
	Name       string `json:"name" validate:"required"`
	Class      string `json:"class"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (us *UpdateStudent) Validate(origStu Student, validate *validator.Validate, svc Service) error {
	code := core.CleanString(us.Code)
	if code != "" {
		us.Code = code
	} else {
		us.Code = origStu.Code
	}

	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = origStu.Name
	}

	us.Class = core.CleanString(us.Class)
	us.Department = core.CleanString(us.Department)
	us.Email = core.CleanString(us.Email, true /* lower */)

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.Code, origStu)
}

// ScorePatch is a direct conduct-score edit by staff, outside the ledger flows.
type ScorePatch struct {
	ConductScore *int `json:"conduct_score" validate:"required"`
}

func (sp ScorePatch) Validate(validate *validator.Validate) error {
	return validate.Struct(sp)
}
