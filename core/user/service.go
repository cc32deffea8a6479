package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/student"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByUsername(username string) (User, error)
		GetUserByEmail(email string) (User, error)
		// GetUserByUsernameOrCode matches on Username or on the linked student code.
		GetUserByUsernameOrCode(username string) (User, error)
		UpdateUser(usr User) (User, error)
		DeleteUsersByID(ids ...string) error
	}

	Service interface {
		Register(nu NewUser) (User, error)
		QueryAll() ([]User, error)
		GetByID(id string) (User, error)
		GetByUsername(uname string) (User, error)
		GetByEmail(email string) (User, error)
		GetByUsernameOrCode(uname string) (User, error)
		UpdateProfile(id string, up UpdateProfile) (User, error)
		SetLastLogin(usr User) (User, error)
		Delete(ids ...string) error
		CheckUniqueness(uname, email string, excludedUsers ...User) error
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetUserPassword) error
	}

	service struct {
		repo     Repository
		students student.Repository
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students student.Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, students: students, mailSvc: mailSvc}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates an account. Registering a student account also enrolls the
// student record if the code is not known yet, so self-registered students
// start with the full initial conduct score.
func (svc *service) Register(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:          uuid.New().String(),
		Username:    nu.Username,
		Name:        nu.Name,
		Email:       nu.Email,
		Role:        nu.Role,
		StudentCode: nu.StudentCode,
		Phone:       nu.Phone,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	if usr.IsStudent() {
		if _, err := svc.students.GetStudentByCode(usr.StudentCode); err == student.ErrNotFound {
			stu := student.Student{
				ID:           uuid.New().String(),
				Code:         usr.StudentCode,
				Name:         usr.Name,
				ConductScore: core.Conf.Conduct.InitialScore,
				Phone:        usr.Phone,
				Email:        usr.Email,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if _, err := svc.students.CreateStudent(stu); err != nil {
				return User{}, errors.Wrap(err, "enrolling student record")
			}
		} else if err != nil {
			return User{}, errors.Wrap(err, "finding student record")
		}
	}

	return svc.repo.CreateUser(usr)
}

func (svc *service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrCode(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrCode(core.CleanString(uname))
}

// UpdateProfile applies a self-service profile edit.
// Username, Role and PasswordHash always survive it unchanged.
func (svc *service) UpdateProfile(id string, up UpdateProfile) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}

	usr.Name = up.Name
	usr.Email = up.Email
	usr.Phone = up.Phone
	usr.Bio = up.Bio
	usr.Avatar = up.Avatar
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr)
}

func (svc *service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(ids...)
}

func (svc *service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ResetPassword(rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(usr); err != nil {
		return errors.Wrap(err, "saving new password")
	}

	svc.sendMail(usr, "Your password was changed",
		"The password on your account was just changed. If this was not you, contact an administrator.")
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		return
	}
	link := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", core.Conf.FrontendBaseURL, EncodeUID(usr), token)
	svc.sendMail(usr, "Password reset", "Follow this link to reset your password: "+link)
}

func (svc *service) sendMail(usr User, subject, body string) {
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: subject,
		BodyStr: body,
	})
}
