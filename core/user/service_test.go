package user_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/student"
	"github.com/YOMIx224/student-conduct-system/core/user"
	emailsvc "github.com/YOMIx224/student-conduct-system/services/email"
	documentdb "github.com/YOMIx224/student-conduct-system/storage/document"
	testutil "github.com/YOMIx224/student-conduct-system/tests"
)

func setup(t *testing.T) (user.Service, user.Repository, student.Repository) {
	t.Helper()
	db := testutil.OpenDB(t)
	usrRepo := documentdb.NewUserRepository(db)
	stuRepo := documentdb.NewStudentRepository(db)
	svc := user.NewService(usrRepo, stuRepo, emailsvc.NewConsoleServiceMock())
	emailsvc.ClearSentMessages()
	return svc, usrRepo, stuRepo
}

func newStudentAccount(code string) user.NewUser {
	return user.NewUser{
		Name:            "สมชาย ใจดี",
		Username:        "somchai",
		Email:           "somchai@test.ac.th",
		Password:        "s3cretX_!",
		PasswordConfirm: "s3cretX_!",
		Role:            user.RoleStudent,
		StudentCode:     code,
	}
}

func TestService_Register(t *testing.T) {
	svc, _, stuRepo := setup(t)

	t.Run("student signup enrolls the student record", func(t *testing.T) {
		usr, err := svc.Register(newStudentAccount("S500"))
		require.NoError(t, err)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("s3cretX_!"))

		stu, err := stuRepo.GetStudentByCode("S500")
		require.NoError(t, err)
		assert.Equal(t, usr.Name, stu.Name)
		assert.Equal(t, core.Conf.Conduct.InitialScore, stu.ConductScore)
	})

	t.Run("signup against a known code does not re-enroll", func(t *testing.T) {
		existing := testutil.CreateStudent(t, stuRepo, "S501", "สมหญิง", 42)

		nu := newStudentAccount(existing.Code)
		nu.Username = "somying"
		nu.Email = "somying@test.ac.th"
		_, err := svc.Register(nu)
		require.NoError(t, err)

		stu, err := stuRepo.GetStudentByCode(existing.Code)
		require.NoError(t, err)
		assert.Equal(t, 42, stu.ConductScore) // untouched
	})

	t.Run("staff signup leaves students alone", func(t *testing.T) {
		nu := user.NewUser{
			Name:            "ครูสมศรี",
			Username:        "teacher1",
			Email:           "teacher1@test.ac.th",
			Password:        "s3cretX_!",
			PasswordConfirm: "s3cretX_!",
			Role:            user.RoleTeacher,
		}
		usr, err := svc.Register(nu)
		require.NoError(t, err)
		assert.Empty(t, usr.StudentCode)

		students, err := stuRepo.QueryAllStudents()
		require.NoError(t, err)
		assert.Len(t, students, 2)
	})

	t.Run("duplicate username fails validation", func(t *testing.T) {
		nu := newStudentAccount("S502")
		nu.Username = "somchai" // taken above
		err := nu.Validate(core.Validate, svc)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestService_GetByUsernameOrCode(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "สมชาย", "somchai", "somchai@test.ac.th", "pwd", user.RoleStudent, "S510", true)

	byUname, err := svc.GetByUsernameOrCode("somchai")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byUname.ID)

	byCode, err := svc.GetByUsernameOrCode("S510")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byCode.ID)

	_, err = svc.GetByUsernameOrCode("nobody")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestService_UpdateProfile(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "สมชาย", "somchai", "somchai@test.ac.th", "pwd", user.RoleStudent, "S520", true)

	up := user.UpdateProfile{
		Name:  "สมชาย แก้ไข",
		Email: "new@test.ac.th",
		Bio:   "สวัสดี",
	}
	require.NoError(t, up.Validate(usr, core.Validate, svc))

	got, err := svc.UpdateProfile(usr.ID, up)
	require.NoError(t, err)
	assert.Equal(t, "สมชาย แก้ไข", got.Name)
	assert.Equal(t, "new@test.ac.th", got.Email)

	// identity and credentials survive the edit
	assert.Equal(t, usr.Username, got.Username)
	assert.Equal(t, usr.Role, got.Role)
	assert.NoError(t, got.CheckPassword("pwd"))
}

func TestService_PasswordReset(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "สมชาย", "somchai", "somchai@test.ac.th", "pwd", user.RoleStudent, "S530", true)

	require.NoError(t, svc.RequestPasswordReset(usr.Email))
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Contains(t, emailsvc.SentMessages[0].BodyStr, user.EncodeUID(usr))

	token, err := user.MakeToken(usr)
	require.NoError(t, err)

	rp := user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "newPwd123_!",
		PasswordConfirm: "newPwd123_!",
	}
	require.NoError(t, svc.ResetPassword(rp))

	refreshed, err := svc.GetByID(usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("newPwd123_!"))

	// the token is single-use: the hash change invalidates it
	err = svc.ResetPassword(rp)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}
