package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/student"
)

var demoStudents = []struct {
	code, name, class, dept string
}{
	{"64201010001", "สมชาย ใจดี", "ปวช.1/1", "ช่างยนต์"},
	{"64201010002", "สมหญิง รักเรียน", "ปวช.2/3", "การบัญชี"},
	{"63301010001", "อนันต์ ขยันยิ่ง", "ปวส.1/2", "เทคโนโลยีสารสนเทศ"},
}

// seed creates the default admin account and a handful of demo students so a
// fresh install has something to show.
func (cli *commandLine) seed(adminPwd string) error {
	if err := cli.addAdmin("admin", "admin@localhost", adminPwd); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, ds := range demoStudents {
		if _, err := cli.stuRepo.GetStudentByCode(ds.code); err == nil {
			continue
		} else if err != student.ErrNotFound {
			return err
		}
		stu := student.Student{
			ID:           uuid.New().String(),
			Code:         ds.code,
			Name:         ds.name,
			Class:        ds.class,
			Department:   ds.dept,
			ConductScore: core.Conf.Conduct.InitialScore,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := cli.stuRepo.CreateStudent(stu); err != nil {
			return err
		}
	}
	return nil
}
