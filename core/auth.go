package core

import "github.com/pkg/errors"

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

// ErrForbidden is returned whenever an actor fails a role check,
// always before any mutation is attempted.
var ErrForbidden = errors.New("permission denied")

// Actor is the resolved identity a caller acts as. It is the only identity
// input the domain services ever see; credential checks happen upstream.
type Actor struct {
	Role        string
	StudentCode string // set iff Role == RoleStudent
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsTeacher() bool { return a.Role == RoleTeacher }
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }

// IsStaff reports whether the actor may perform teacher/admin ledger operations.
func (a Actor) IsStaff() bool { return a.IsAdmin() || a.IsTeacher() }
