package main

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/user"
	documentdb "github.com/YOMIx224/student-conduct-system/storage/document"
	testutil "github.com/YOMIx224/student-conduct-system/tests"
)

func setup(t *testing.T) *commandLine {
	db := testutil.OpenDB(t)
	return &commandLine{
		usrRepo: documentdb.NewUserRepository(db),
		stuRepo: documentdb.NewStudentRepository(db),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	pwd     string
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)

	existing := testutil.CreateUser(t, cli.usrRepo, "ครูเดิม", "kru", "kru@test.ac.th", "pwd", user.RoleTeacher, "", true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"addadmin", "-username", "boss", "-email", "boss@test.ac.th"}, wantErr: errHelp},
		{name: "create new admin", args: []string{"addadmin", "-username", "boss", "-email", "boss@test.ac.th"}, pwd: "s3cret"},
		{name: "promote existing user", args: []string{"addadmin", "-username", existing.Username, "-email", existing.Email}, pwd: "s3cret"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	boss, err := cli.usrRepo.GetUserByUsername("boss")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if !boss.IsAdmin() || !boss.IsActive {
		t.Errorf("new admin not set up properly: role=%s active=%v", boss.Role, boss.IsActive)
	}
	if err := boss.CheckPassword("s3cret"); err != nil {
		t.Error("new admin password not set")
	}

	promoted, err := cli.usrRepo.GetUserByUsername(existing.Username)
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if !promoted.IsAdmin() {
		t.Errorf("existing user not promoted: role=%s", promoted.Role)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, cli.usrRepo, "สมชาย", "somchai", "somchai@test.ac.th", "oldpwd", user.RoleStudent, "64201010009", true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "newpwd1"},
		{name: "reset with student code", args: []string{"resetpassword", "-username", usr.StudentCode}, pwd: "newpwd2"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "newpwd3"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			refreshed, err := cli.usrRepo.GetUserByUsername(usr.Username)
			if err != nil {
				t.Fatalf("GetUserByUsername() failed: %v", err)
			}
			if err := refreshed.CheckPassword(tt.pwd); err != nil {
				t.Error("failed to set the new password")
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	t.Run("no subcommand", func(t *testing.T) {
		if err := cli.run([]string{"admin", "migrate"}); err != errHelp {
			t.Fatalf("cli.run() error = %v, wantErr %v", err, errHelp)
		}
	})

	t.Run("flat-file storage cannot migrate", func(t *testing.T) {
		if err := cli.run([]string{"admin", "migrate", "up"}); err != errMigrateNeedsDB {
			t.Fatalf("cli.run() error = %v, wantErr %v", err, errMigrateNeedsDB)
		}
	})

	t.Run("commands are forwarded", func(t *testing.T) {
		cli.db = sqlx.NewDb(new(sql.DB), "postgres")
		defer func() { cli.db = nil }()

		var gotCommand string
		var gotArgs []string
		migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
			gotCommand = command
			gotArgs = args
			if command == "lol" {
				return fmt.Errorf("%q: no such command", command)
			}
			return nil
		}

		if err := cli.run([]string{"admin", "migrate", "up-to", "2"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		if gotCommand != "up-to" || len(gotArgs) != 1 || gotArgs[0] != "2" {
			t.Errorf("migrateFunc got (%s, %v)", gotCommand, gotArgs)
		}

		if err := cli.run([]string{"admin", "migrate", "lol"}); err == nil {
			t.Error("cli.run() expected error for unknown command")
		}
	})
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	mockPassword("")
	if err := cli.run([]string{"admin", "seed"}); err != errHelp {
		t.Fatalf("cli.run() error = %v, wantErr %v", err, errHelp)
	}

	mockPassword("s3cret")
	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	admin, err := cli.usrRepo.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("seeded admin role = %s", admin.Role)
	}

	for _, ds := range demoStudents {
		stu, err := cli.stuRepo.GetStudentByCode(ds.code)
		if err != nil {
			t.Fatalf("GetStudentByCode(%s) failed: %v", ds.code, err)
		}
		if stu.ConductScore != core.Conf.Conduct.InitialScore {
			t.Errorf("seeded student %s score = %d", ds.code, stu.ConductScore)
		}
	}

	// seeding twice is a no-op for existing records
	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	students, err := cli.stuRepo.QueryAllStudents()
	if err != nil {
		t.Fatalf("QueryAllStudents() failed: %v", err)
	}
	if len(students) != len(demoStudents) {
		t.Errorf("QueryAllStudents() len = %d, want %d", len(students), len(demoStudents))
	}
}
