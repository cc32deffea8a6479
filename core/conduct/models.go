package conduct

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/YOMIx224/student-conduct-system/core"
)

// Appeal statuses
const (
	AppealPending  = "pending"
	AppealApproved = "approved"
	AppealRejected = "rejected"
)

// DefaultViolationTypes is the suggested infraction vocabulary. The type on a
// record stays a free string; staff may record anything.
var DefaultViolationTypes = []string{
	"มาสายไม่มีใบลา",
	"ขาดเรียนไม่มีใบลา",
	"แต่งกายไม่เหมาะสม",
	"ทำความประพฤติไม่เหมาะสม",
	"สูบบุหรี่",
	"ไม่ทำการบ้าน",
	"ใช้โทรศัพท์ในห้องเรียน",
	"อื่นๆ",
}

// Appeal is a student's contest of a violation, embedded in its parent record.
type Appeal struct {
	ID              string    `json:"id"`
	ByStudentCode   string    `json:"by_student_code"`
	Message         string    `json:"message"`
	Image           string    `json:"image,omitempty"` // opaque encoded blob
	SubmittedAt     time.Time `json:"submitted_at"`    // UTC
	Status          string    `json:"status"`
	TeacherResponse string    `json:"teacher_response,omitempty"`
	RespondedAt     time.Time `json:"responded_at"` // UTC; zero until reviewed
	RestoredPoints  int       `json:"restored_points,omitempty"`
}

// Violation is a recorded infraction. StudentCode references student.Student.Code,
// not the internal student ID. StudentName is a snapshot taken at record time;
// it goes stale if the student is renamed, a deliberate read optimization.
type Violation struct {
	ID             string    `json:"id"`
	StudentCode    string    `json:"student_code"`
	StudentName    string    `json:"student_name"`
	Type           string    `json:"type"`
	PointsDeducted int       `json:"points_deducted"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Time           string    `json:"time"` // HH:MM
	RecordedBy     string    `json:"recorded_by"`
	Appeals        []Appeal  `json:"appeals,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// AppealByID returns the index of the appeal with the given id, or -1.
func (v Violation) AppealByID(id string) int {
	for i, ap := range v.Appeals {
		if ap.ID == id {
			return i
		}
	}
	return -1
}

// NewViolation contains information needed to record an infraction.
type NewViolation struct {
	StudentCode    string `json:"student_code" validate:"required"`
	Type           string `json:"type" validate:"required"`
	PointsDeducted int    `json:"points_deducted" validate:"required,gt=0"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	Date           string `json:"date" validate:"required,isodate"`
	Time           string `json:"time" validate:"required,clocktime"`
	RecordedBy     string `json:"recorded_by" validate:"required"`
}

func (nv *NewViolation) Validate(validate *validator.Validate) error {
	nv.StudentCode = core.CleanString(nv.StudentCode)
	nv.Type = core.CleanString(nv.Type)
	nv.Description = core.CleanString(nv.Description)
	nv.Location = core.CleanString(nv.Location)
	nv.RecordedBy = core.CleanString(nv.RecordedBy)
	return validate.Struct(nv)
}

// UpdateViolation defines what may be changed on an existing record.
// ID, StudentCode and StudentName are immutable; any values given for them are ignored.
// A zero PointsDeducted means "keep the current deduction".
type UpdateViolation struct {
	Type           string `json:"type"`
	PointsDeducted int    `json:"points_deducted" validate:"omitempty,gt=0"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	Date           string `json:"date" validate:"omitempty,isodate"`
	Time           string `json:"time" validate:"omitempty,clocktime"`
	RecordedBy     string `json:"recorded_by"`
}

func (uv *UpdateViolation) Validate(origV Violation, validate *validator.Validate) error {
	if typ := core.CleanString(uv.Type); typ != "" {
		uv.Type = typ
	} else {
		uv.Type = origV.Type
	}
	if uv.PointsDeducted == 0 {
		uv.PointsDeducted = origV.PointsDeducted
	}
	if desc := core.CleanString(uv.Description); desc != "" {
		uv.Description = desc
	} else {
		uv.Description = origV.Description
	}
	if loc := core.CleanString(uv.Location); loc != "" {
		uv.Location = loc
	} else {
		uv.Location = origV.Location
	}
	if uv.Date == "" {
		uv.Date = origV.Date
	}
	if uv.Time == "" {
		uv.Time = origV.Time
	}
	if by := core.CleanString(uv.RecordedBy); by != "" {
		uv.RecordedBy = by
	} else {
		uv.RecordedBy = origV.RecordedBy
	}
	return validate.Struct(uv)
}

// NewAppeal contains information needed to contest a violation.
type NewAppeal struct {
	Message string `json:"message" validate:"required"`
	Image   string `json:"image"`
}

func (na *NewAppeal) Validate(validate *validator.Validate) error {
	na.Message = core.CleanString(na.Message)
	return validate.Struct(na)
}

// AppealReview is a staff decision on a pending appeal. RestoredPoints only
// takes effect on approval; a rejection never moves the score.
type AppealReview struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected"`
	TeacherResponse string `json:"teacher_response"`
	RestoredPoints  int    `json:"restored_points" validate:"gte=0,lte=100"`
}

func (ar *AppealReview) Validate(validate *validator.Validate) error {
	ar.TeacherResponse = core.CleanString(ar.TeacherResponse)
	return validate.Struct(ar)
}
