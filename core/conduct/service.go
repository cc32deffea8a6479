package conduct

import (
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/student"
)

var (
	// errors
	ErrNotFound           = errors.New("violation not found")
	ErrAppealNotFound     = errors.New("appeal not found")
	ErrDuplicateViolation = errors.New("this student has already been deducted for this violation on this date")
	// ErrScoreNotUpdated signals a partial failure: the violation record was
	// persisted but the follow-up score write failed. There is no compensation;
	// callers decide whether to surface or retry.
	ErrScoreNotUpdated = errors.New("violation recorded but the student score was not updated")

	errPointsNotPositive = errors.New("points deducted must be a positive number")
)

type (
	Repository interface {
		CreateViolation(v Violation) (Violation, error)
		QueryAllViolations() ([]Violation, error)
		GetViolationByID(id string) (Violation, error)
		// FilterViolationsByStudent returns all violations recorded against the given student code.
		FilterViolationsByStudent(code string) ([]Violation, error)
		// HasViolation reports whether a violation with the same (code, type, date) tuple exists.
		HasViolation(code, vtype, date string) (bool, error)
		UpdateViolation(v Violation) (Violation, error)
		DeleteViolationsByID(ids ...string) error
	}

	Service interface {
		Record(actor core.Actor, nv NewViolation) (Violation, error)
		QueryAll(actor core.Actor) ([]Violation, error)
		QueryByStudent(actor core.Actor, code string) ([]Violation, error)
		GetByID(id string) (Violation, error)
		Edit(actor core.Actor, id string, uv UpdateViolation) (Violation, error)
		Delete(actor core.Actor, id string) error
		SubmitAppeal(actor core.Actor, violationID string, na NewAppeal) (Appeal, error)
		ReviewAppeal(actor core.Actor, violationID, appealID string, rev AppealReview) (Violation, error)
	}

	service struct {
		repo     Repository
		students student.Repository
		mailSvc  core.EmailService

		mutex        sync.Mutex
		studentLocks map[string]*sync.Mutex
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students student.Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:         repo,
		students:     students,
		mailSvc:      mailSvc,
		studentLocks: make(map[string]*sync.Mutex),
	}
}

// studentLock serializes score mutations per student code. The store itself
// only guarantees whole-collection read-modify-write; without this, two
// concurrent deductions against the same student can both read the stale
// score and lose one of the updates.
func (svc *service) studentLock(code string) *sync.Mutex {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()
	lock, ok := svc.studentLocks[code]
	if !ok {
		lock = new(sync.Mutex)
		svc.studentLocks[code] = lock
	}
	return lock
}

// Record persists a new violation, then deducts the points from the student's
// score as a second, independent write. A crash between the two writes leaves
// the violation recorded without its deduction; the second write failing is
// surfaced as ErrScoreNotUpdated alongside the created record.
func (svc *service) Record(actor core.Actor, nv NewViolation) (Violation, error) {
	if err := canManageViolations(actor); err != nil {
		return Violation{}, err
	}
	if nv.PointsDeducted <= 0 {
		return Violation{}, core.NewValidationError(errPointsNotPositive,
			core.FieldError{Field: "points_deducted", Error: errPointsNotPositive.Error()})
	}

	lock := svc.studentLock(nv.StudentCode)
	lock.Lock()
	defer lock.Unlock()

	stu, err := svc.students.GetStudentByCode(nv.StudentCode)
	if err != nil {
		return Violation{}, err
	}

	dup, err := svc.repo.HasViolation(nv.StudentCode, nv.Type, nv.Date)
	if err != nil {
		return Violation{}, errors.Wrap(err, "checking same-day duplicate")
	}
	if dup {
		return Violation{}, ErrDuplicateViolation
	}

	now := time.Now().UTC()
	v := Violation{
		ID:             uuid.New().String(),
		StudentCode:    stu.Code,
		StudentName:    stu.Name,
		Type:           nv.Type,
		PointsDeducted: nv.PointsDeducted,
		Description:    nv.Description,
		Location:       nv.Location,
		Date:           nv.Date,
		Time:           nv.Time,
		RecordedBy:     nv.RecordedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	v, err = svc.repo.CreateViolation(v)
	if err != nil {
		return Violation{}, errors.Wrap(err, "creating violation")
	}

	newScore := stu.ConductScore - v.PointsDeducted
	if core.Conf.Conduct.StrictScoreFloor {
		newScore = core.ClampScore(newScore, core.Conf.Conduct.MaxScore)
	}
	if _, err := svc.students.SetConductScore(stu.Code, newScore); err != nil {
		return v, errors.WithMessage(ErrScoreNotUpdated, err.Error())
	}

	svc.notify(stu, "Conduct points deducted",
		fmt.Sprintf("%d conduct point(s) were deducted on %s for: %s.", v.PointsDeducted, v.Date, v.Type))
	return v, nil
}

func (svc *service) QueryAll(actor core.Actor) ([]Violation, error) {
	if !actor.IsStaff() {
		return nil, core.ErrForbidden
	}
	return svc.repo.QueryAllViolations()
}

func (svc *service) QueryByStudent(actor core.Actor, code string) ([]Violation, error) {
	code = core.CleanString(code)
	if err := canViewStudentViolations(actor, code); err != nil {
		return nil, err
	}
	return svc.repo.FilterViolationsByStudent(code)
}

func (svc *service) GetByID(id string) (Violation, error) {
	return svc.repo.GetViolationByID(id)
}

// Edit applies a patch to a violation and reconciles the student's score by
// the deduction delta, clamped to [0, max]. ID, StudentCode and StudentName
// survive the patch untouched.
func (svc *service) Edit(actor core.Actor, id string, uv UpdateViolation) (Violation, error) {
	if err := canManageViolations(actor); err != nil {
		return Violation{}, err
	}

	orig, err := svc.repo.GetViolationByID(id)
	if err != nil {
		return Violation{}, err
	}

	lock := svc.studentLock(orig.StudentCode)
	lock.Lock()
	defer lock.Unlock()

	// the first read only resolved the lock key; re-read now that we hold the
	// lock so the delta is computed against the current record
	orig, err = svc.repo.GetViolationByID(id)
	if err != nil {
		return Violation{}, err
	}

	delta := uv.PointsDeducted - orig.PointsDeducted

	orig.Type = uv.Type
	orig.PointsDeducted = uv.PointsDeducted
	orig.Description = uv.Description
	orig.Location = uv.Location
	orig.Date = uv.Date
	orig.Time = uv.Time
	orig.RecordedBy = uv.RecordedBy
	orig.UpdatedAt = time.Now().UTC()

	v, err := svc.repo.UpdateViolation(orig)
	if err != nil {
		return Violation{}, errors.Wrap(err, "updating violation")
	}

	if delta != 0 {
		stu, err := svc.students.GetStudentByCode(v.StudentCode)
		if err != nil {
			if err == student.ErrNotFound {
				// orphaned record of a deleted student; nothing to reconcile
				return v, nil
			}
			return v, errors.WithMessage(ErrScoreNotUpdated, err.Error())
		}
		newScore := core.ClampScore(stu.ConductScore-delta, core.Conf.Conduct.MaxScore)
		if _, err := svc.students.SetConductScore(stu.Code, newScore); err != nil {
			return v, errors.WithMessage(ErrScoreNotUpdated, err.Error())
		}
	}
	return v, nil
}

// Delete removes a violation (embedded appeals with it) and restores the full
// deduction to the student, capped at the max score.
func (svc *service) Delete(actor core.Actor, id string) error {
	if err := canManageViolations(actor); err != nil {
		return err
	}

	v, err := svc.repo.GetViolationByID(id)
	if err != nil {
		return err
	}

	lock := svc.studentLock(v.StudentCode)
	lock.Lock()
	defer lock.Unlock()

	// re-read under the lock; a concurrent delete must not refund twice
	v, err = svc.repo.GetViolationByID(id)
	if err != nil {
		return err
	}

	if stu, err := svc.students.GetStudentByCode(v.StudentCode); err == nil {
		restored := core.CapScore(stu.ConductScore+v.PointsDeducted, core.Conf.Conduct.MaxScore)
		if _, err := svc.students.SetConductScore(stu.Code, restored); err != nil {
			return errors.Wrap(err, "restoring student score")
		}
	} else if err != student.ErrNotFound {
		return err
	}

	return svc.repo.DeleteViolationsByID(v.ID)
}

// SubmitAppeal appends a pending appeal to the violation. Nothing limits the
// number of appeals a violation can accumulate; any one-appeal rule is a
// presentation concern.
func (svc *service) SubmitAppeal(actor core.Actor, violationID string, na NewAppeal) (Appeal, error) {
	v, err := svc.repo.GetViolationByID(violationID)
	if err != nil {
		return Appeal{}, err
	}
	if err := canAppeal(actor, v); err != nil {
		return Appeal{}, err
	}
	if na.Message == "" {
		return Appeal{}, core.NewValidationError(nil,
			core.FieldError{Field: "message", Error: "this field is required"})
	}

	ap := Appeal{
		ID:            uuid.New().String(),
		ByStudentCode: actor.StudentCode,
		Message:       na.Message,
		Image:         na.Image,
		SubmittedAt:   time.Now().UTC(),
		Status:        AppealPending,
	}
	v.Appeals = append(v.Appeals, ap)
	if _, err := svc.repo.UpdateViolation(v); err != nil {
		return Appeal{}, errors.Wrap(err, "saving appeal")
	}
	return ap, nil
}

// ReviewAppeal resolves an appeal. Approval with positive points restores the
// student's score capped at the max; rejection never moves the score. There is
// deliberately no guard against re-reviewing a resolved appeal; restoration is
// additive and tied to the approved branch only, so a later rejection cannot
// reverse points already restored.
func (svc *service) ReviewAppeal(actor core.Actor, violationID, appealID string, rev AppealReview) (Violation, error) {
	if err := canReviewAppeals(actor); err != nil {
		return Violation{}, err
	}

	v, err := svc.repo.GetViolationByID(violationID)
	if err != nil {
		return Violation{}, err
	}

	lock := svc.studentLock(v.StudentCode)
	lock.Lock()
	defer lock.Unlock()

	// re-read under the lock before resolving the appeal
	v, err = svc.repo.GetViolationByID(violationID)
	if err != nil {
		return Violation{}, err
	}
	idx := v.AppealByID(appealID)
	if idx < 0 {
		return Violation{}, ErrAppealNotFound
	}

	ap := v.Appeals[idx]
	ap.Status = rev.Status
	ap.TeacherResponse = rev.TeacherResponse
	ap.RespondedAt = time.Now().UTC()

	var stu student.Student
	var haveStu bool
	if s, err := svc.students.GetStudentByCode(v.StudentCode); err == nil {
		stu, haveStu = s, true
	}

	if rev.Status == AppealApproved && rev.RestoredPoints > 0 {
		ap.RestoredPoints = rev.RestoredPoints
		if haveStu {
			restored := core.CapScore(stu.ConductScore+rev.RestoredPoints, core.Conf.Conduct.MaxScore)
			if _, err := svc.students.SetConductScore(stu.Code, restored); err != nil {
				return Violation{}, errors.Wrap(err, "restoring student score")
			}
		}
	}

	v.Appeals[idx] = ap
	v, err = svc.repo.UpdateViolation(v)
	if err != nil {
		return Violation{}, errors.Wrap(err, "saving appeal review")
	}

	if haveStu {
		svc.notify(stu, "Appeal "+ap.Status,
			fmt.Sprintf("Your appeal on the violation of %s was %s. %s", v.Date, ap.Status, ap.TeacherResponse))
	}
	return v, nil
}

func (svc *service) notify(stu student.Student, subject, body string) {
	if stu.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: stu.Name, Address: stu.Email}},
		Subject: subject,
		BodyStr: body,
	})
}
