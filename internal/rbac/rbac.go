// Package rbac decides whether an authenticated user may perform an
// operation on a protected collection. The evaluator is pure: role
// resolution and policy evaluation have no side effects, so unauthorized
// requests can be rejected at the middleware boundary before any handler
// runs.
package rbac

import (
	"net/http"

	"github.com/inv-nithin007/School-manager/internal/model"
)

// Role is a resolved user role
type Role string

const (
	RoleAdmin   Role = model.RoleAdmin
	RoleTeacher Role = model.RoleTeacher
	RoleStudent Role = model.RoleStudent
)

// Operation classifies a request as reading or mutating a collection
type Operation int

const (
	OperationRead Operation = iota
	OperationWrite
)

// Policy is a named rule mapping (role, operation) to allow/deny
type Policy int

const (
	// AdminOrReadOnly allows writes for admins only; reads for any
	// authenticated user. Applied to the teacher collection.
	AdminOrReadOnly Policy = iota

	// StudentOrTeacherOrAdmin allows any operation for every known role,
	// effectively authenticated-only. Applied to the student collection,
	// which is intentionally broader than the teacher collection.
	StudentOrTeacherOrAdmin

	// TeacherOrAdmin allows any operation for teachers and admins. Used by
	// supplementary endpoints such as a teacher's student cross listing.
	TeacherOrAdmin
)

// ResolveRole computes the effective role for a user. It is total over the
// three possible states: a profile fixes the role, a superuser without a
// profile is an admin, and anything else falls back to student.
func ResolveRole(isSuperuser bool, profile *model.Profile) Role {
	switch {
	case profile != nil:
		return Role(profile.Role)
	case isSuperuser:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// OperationForMethod maps an HTTP method to an operation kind. Safe methods
// are reads, everything else mutates.
func OperationForMethod(method string) Operation {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return OperationRead
	default:
		return OperationWrite
	}
}

// Evaluate reports whether role may perform op under policy
func Evaluate(role Role, op Operation, policy Policy) bool {
	switch policy {
	case AdminOrReadOnly:
		if op == OperationRead {
			return true
		}
		return role == RoleAdmin
	case StudentOrTeacherOrAdmin:
		return role == RoleStudent || role == RoleTeacher || role == RoleAdmin
	case TeacherOrAdmin:
		return role == RoleTeacher || role == RoleAdmin
	default:
		return false
	}
}
