package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/conduct"
	"github.com/YOMIx224/student-conduct-system/core/student"
	"github.com/YOMIx224/student-conduct-system/core/user"
	emailsvc "github.com/YOMIx224/student-conduct-system/services/email"
	documentdb "github.com/YOMIx224/student-conduct-system/storage/document"
	testutil "github.com/YOMIx224/student-conduct-system/tests"
)

var (
	app     Server
	stuRepo student.Repository
	vioRepo conduct.Repository
	usrRepo user.Repository
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	dir, err := os.MkdirTemp("", "conduct-api-test")
	if err != nil {
		fmt.Printf("MkdirTemp(): %v", err)
		os.Exit(1)
	}

	db, err := documentdb.Open(dir)
	if err != nil {
		fmt.Printf("documentdb.Open(): %v", err)
		os.Exit(1)
	}
	stuRepo = documentdb.NewStudentRepository(db)
	vioRepo = documentdb.NewViolationRepository(db)
	usrRepo = documentdb.NewUserRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()

	app = NewServer(&Options{
		DisableReqLogs: true,
		Logger:         nopLogger{},
		StudentSvc:     student.NewService(stuRepo),
		ConductSvc:     conduct.NewService(vioRepo, stuRepo, mailSvc),
		UserSvc:        user.NewService(usrRepo, stuRepo, mailSvc),
	})

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

func TestViolationAPI(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "ครูสมศรี", "kru1", "kru1@test.ac.th", "pwd", user.RoleTeacher, "", true)
	stu := testutil.CreateStudent(t, stuRepo, "V001", "สมชาย ใจดี", 100)
	stuAccount := testutil.CreateUser(t, usrRepo, stu.Name, "v001usr", "v001@test.ac.th", "pwd", user.RoleStudent, stu.Code, true)
	otherAccount := testutil.CreateUser(t, usrRepo, "คนอื่น", "v002usr", "v002@test.ac.th", "pwd", user.RoleStudent, "V002", true)

	teacherToken := getToken(t, teacher)
	stuToken := getToken(t, stuAccount)
	otherToken := getToken(t, otherAccount)

	nv := conduct.NewViolation{
		StudentCode:    stu.Code,
		Type:           "มาสาย",
		PointsDeducted: 5,
		Date:           "2024-01-10",
		Time:           "08:30",
		RecordedBy:     teacher.Username,
	}

	var recorded conduct.Violation

	t.Run("anonymous is rejected", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations", "", marshallObj(t, nv)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("students cannot record", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations", stuToken, marshallObj(t, nv)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff records and the score drops", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations", teacherToken, marshallObj(t, nv)))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recorded))
		assert.Equal(t, stu.Name, recorded.StudentName)

		refreshed, err := stuRepo.GetStudentByCode(stu.Code)
		require.NoError(t, err)
		assert.Equal(t, 95, refreshed.ConductScore)
	})

	t.Run("same-day duplicate conflicts", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations", teacherToken, marshallObj(t, nv)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		bad := nv
		bad.StudentCode = "NOPE"
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations", teacherToken, marshallObj(t, bad)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations", teacherToken, marshallObj(t, conduct.NewViolation{})))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("staff list everything", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/violations", teacherToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var got []conduct.Violation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got)
	})

	t.Run("a student gets their own list by default", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/violations", stuToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var got []conduct.Violation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, stu.Code, got[0].StudentCode)
	})

	t.Run("a student cannot read another student's list", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/violations?student="+stu.Code, otherToken))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("violation types are served", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/violations/types", stuToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var got []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, conduct.DefaultViolationTypes, got)
	})

	var appeal conduct.Appeal

	t.Run("the targeted student appeals", func(t *testing.T) {
		na := conduct.NewAppeal{Message: "ไม่เป็นความจริง"}
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations/"+recorded.ID+"/appeals", stuToken, marshallObj(t, na)))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appeal))
		assert.Equal(t, conduct.AppealPending, appeal.Status)
	})

	t.Run("another student cannot appeal it", func(t *testing.T) {
		na := conduct.NewAppeal{Message: "ฉันด้วย"}
		rec := do(newAuthRequest(http.MethodPost, "/v1/violations/"+recorded.ID+"/appeals", otherToken, marshallObj(t, na)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("students cannot review", func(t *testing.T) {
		rev := conduct.AppealReview{Status: conduct.AppealApproved, RestoredPoints: 5}
		rec := do(newAuthRequest(http.MethodPatch, "/v1/violations/"+recorded.ID+"/appeals/"+appeal.ID, stuToken, marshallObj(t, rev)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff approve and the score is restored", func(t *testing.T) {
		rev := conduct.AppealReview{Status: conduct.AppealApproved, TeacherResponse: "อนุมัติ", RestoredPoints: 5}
		rec := do(newAuthRequest(http.MethodPatch, "/v1/violations/"+recorded.ID+"/appeals/"+appeal.ID, teacherToken, marshallObj(t, rev)))
		require.Equal(t, http.StatusOK, rec.Code)

		refreshed, err := stuRepo.GetStudentByCode(stu.Code)
		require.NoError(t, err)
		assert.Equal(t, 100, refreshed.ConductScore)
	})

	t.Run("staff delete and the deduction is refunded, capped", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodDelete, "/v1/violations/"+recorded.ID, teacherToken))
		require.Equal(t, http.StatusNoContent, rec.Code)

		refreshed, err := stuRepo.GetStudentByCode(stu.Code)
		require.NoError(t, err)
		assert.Equal(t, 100, refreshed.ConductScore) // already at max
	})
}

func TestStudentAPI(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin1@test.ac.th", "pwd", user.RoleAdmin, "", true)
	teacher := testutil.CreateUser(t, usrRepo, "ครูมานะ", "kru2", "kru2@test.ac.th", "pwd", user.RoleTeacher, "", true)
	stuAccount := testutil.CreateUser(t, usrRepo, "สมหญิง", "st1", "st1@test.ac.th", "pwd", user.RoleStudent, "ST001", true)

	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)
	stuToken := getToken(t, stuAccount)

	var created student.Student

	t.Run("teacher cannot enroll", func(t *testing.T) {
		ns := student.NewStudent{Code: "ST001", Name: "สมหญิง"}
		rec := do(newAuthRequest(http.MethodPost, "/v1/students", teacherToken, marshallObj(t, ns)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin enrolls at the initial score", func(t *testing.T) {
		ns := student.NewStudent{Code: "ST001", Name: "สมหญิง", Class: "ปวช.1/2"}
		rec := do(newAuthRequest(http.MethodPost, "/v1/students", adminToken, marshallObj(t, ns)))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, core.Conf.Conduct.InitialScore, created.ConductScore)
	})

	t.Run("duplicate code fails validation", func(t *testing.T) {
		ns := student.NewStudent{Code: "ST001", Name: "คนอื่น"}
		rec := do(newAuthRequest(http.MethodPost, "/v1/students", adminToken, marshallObj(t, ns)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("students cannot list", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/students", stuToken))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("a student reads their own record", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/students/"+created.ID, stuToken))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("a student cannot read someone else's record", func(t *testing.T) {
		other := testutil.CreateStudent(t, stuRepo, "ST002", "คนอื่น", 100)
		rec := do(newAuthRequest(http.MethodGet, "/v1/students/"+other.ID, stuToken))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("staff patch the score directly", func(t *testing.T) {
		score := 70
		sp := student.ScorePatch{ConductScore: &score}
		rec := do(newAuthRequest(http.MethodPatch, "/v1/students/"+created.ID+"/score", teacherToken, marshallObj(t, sp)))
		require.Equal(t, http.StatusOK, rec.Code)

		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 70, got.ConductScore)
	})

	t.Run("class list is served", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/students/classes", stuToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var got []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, student.ClassList, got)
	})
}

func TestUserAPI(t *testing.T) {
	stu := testutil.CreateStudent(t, stuRepo, "U100", "สมปอง", 100)
	usr := testutil.CreateUser(t, usrRepo, stu.Name, "sompong", "sompong@test.ac.th", "pwd12345", user.RoleStudent, stu.Code, true)
	inactive := testutil.CreateUser(t, usrRepo, "ปิดไป", "gone", "gone@test.ac.th", "pwd12345", user.RoleStudent, "U101", false)

	login := func(uname, pwd string) *httptest.ResponseRecorder {
		body := marshallObj(t, LoginRequest{Username: uname, Password: pwd})
		return do(newAuthRequest(http.MethodPost, "/v1/users/login", "", body))
	}

	t.Run("login by username", func(t *testing.T) {
		rec := login(usr.Username, "pwd12345")
		require.Equal(t, http.StatusOK, rec.Code)
		var got LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.Token)
	})

	t.Run("login by username ignores case", func(t *testing.T) {
		rec := login("SOMPONG", "pwd12345")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("login by student code", func(t *testing.T) {
		// the code keeps its uppercase letters end to end
		rec := login(stu.Code, "pwd12345")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := login(usr.Username, "wrong")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		rec := login(inactive.Username, "pwd12345")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("student self-registration enrolls the student", func(t *testing.T) {
		nu := user.NewUser{
			Name:            "นักเรียนใหม่",
			Username:        "newkid",
			Email:           "newkid@test.ac.th",
			Password:        "goodPwd_77",
			PasswordConfirm: "goodPwd_77",
			Role:            user.RoleStudent,
			StudentCode:     "U200",
		}
		rec := do(newAuthRequest(http.MethodPost, "/v1/users/register", "", marshallObj(t, nu)))
		require.Equal(t, http.StatusCreated, rec.Code)

		enrolled, err := stuRepo.GetStudentByCode("U200")
		require.NoError(t, err)
		assert.Equal(t, core.Conf.Conduct.InitialScore, enrolled.ConductScore)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		nu := user.NewUser{
			Name:            "คนซ้ำ",
			Username:        "newkid",
			Email:           "other@test.ac.th",
			Password:        "goodPwd_77",
			PasswordConfirm: "goodPwd_77",
			Role:            user.RoleStudent,
			StudentCode:     "U201",
		}
		rec := do(newAuthRequest(http.MethodPost, "/v1/users/register", "", marshallObj(t, nu)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("anonymous cannot register staff", func(t *testing.T) {
		nu := user.NewUser{
			Name:            "Fake Admin",
			Username:        "fakeadmin",
			Email:           "fake@test.ac.th",
			Password:        "goodPwd_77",
			PasswordConfirm: "goodPwd_77",
			Role:            user.RoleAdmin,
		}
		rec := do(newAuthRequest(http.MethodPost, "/v1/users/register", "", marshallObj(t, nu)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("me returns the authenticated profile", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, usr)))
		require.Equal(t, http.StatusOK, rec.Code)
		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, usr.ID, got.ID)
	})

	t.Run("token refresh", func(t *testing.T) {
		rec := do(newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr)))
		require.Equal(t, http.StatusOK, rec.Code)
		var got LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.Token)
	})
}
