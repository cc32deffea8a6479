package conduct

import "github.com/YOMIx224/student-conduct-system/core"

// Access policy for ledger operations. Checks run before any mutation is
// attempted and fail with core.ErrForbidden.

// canManageViolations gates recording, editing and deleting violations: staff only.
func canManageViolations(actor core.Actor) error {
	if !actor.IsStaff() {
		return core.ErrForbidden
	}
	return nil
}

// canReviewAppeals gates appeal review: staff only, no further role distinction.
func canReviewAppeals(actor core.Actor) error {
	if !actor.IsStaff() {
		return core.ErrForbidden
	}
	return nil
}

// canAppeal gates appeal submission: only the student the violation targets.
func canAppeal(actor core.Actor, v Violation) error {
	if !actor.IsStudent() || actor.StudentCode != v.StudentCode {
		return core.ErrForbidden
	}
	return nil
}

// canViewStudentViolations gates per-student listings: staff, or the student themselves.
func canViewStudentViolations(actor core.Actor, code string) error {
	if actor.IsStaff() {
		return nil
	}
	if actor.IsStudent() && actor.StudentCode == code {
		return nil
	}
	return core.ErrForbidden
}
