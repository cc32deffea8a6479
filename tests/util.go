package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/YOMIx224/student-conduct-system/core/conduct"
	"github.com/YOMIx224/student-conduct-system/core/student"
	"github.com/YOMIx224/student-conduct-system/core/user"
	documentdb "github.com/YOMIx224/student-conduct-system/storage/document"
)

// OpenDB opens a throwaway flat-file store under the test's temp dir.
func OpenDB(t *testing.T) *documentdb.DB {
	t.Helper()
	db, err := documentdb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

func CreateStudent(t *testing.T, repo student.Repository, code, name string, score int) student.Student {
	t.Helper()
	now := time.Now().UTC()
	stu := student.Student{
		ID:           uuid.New().String(),
		Code:         code,
		Name:         name,
		Class:        "ปวช.1/1",
		Department:   "ช่างยนต์",
		ConductScore: score,
		Email:        code + "@students.test",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stu, err := repo.CreateStudent(stu)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role, studentCode string,
	isActive bool,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:          uuid.New().String(),
		Name:        name,
		Username:    uname,
		Email:       email,
		Role:        role,
		StudentCode: studentCode,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateViolation(
	t *testing.T,
	repo conduct.Repository,
	code, name, vtype string,
	points int,
	date string,
) conduct.Violation {
	t.Helper()
	now := time.Now().UTC()
	v := conduct.Violation{
		ID:             uuid.New().String(),
		StudentCode:    code,
		StudentName:    name,
		Type:           vtype,
		PointsDeducted: points,
		Date:           date,
		Time:           "08:30",
		RecordedBy:     "teacher1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	v, err := repo.CreateViolation(v)
	if err != nil {
		t.Fatalf("CreateViolation() failed: %v", err)
	}
	return v
}
