// internal/domain/roles/roles.go
package roles

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. Stored values are normalized to
// the lowercase canonical form on read; comparisons elsewhere in the codebase
// must go through this type, never ad-hoc strings.
type Role string

const (
	Student    Role = "student"
	Teacher    Role = "teacher"
	Admin      Role = "admin"
	SuperAdmin Role = "superadmin"
)

// All lists every valid role in privilege order, least first.
var All = []Role{Student, Teacher, Admin, SuperAdmin}

// Parse normalizes a stored role value. Any casing is accepted ("Admin",
// "ADMIN", "superAdmin"). Unknown or empty values resolve to Student so a
// corrupt profile never gains privilege.
func Parse(s string) Role {
	r, err := ParseStrict(s)
	if err != nil {
		return Student
	}
	return r
}

// ParseStrict normalizes a role value and reports unknown values as errors.
// Use this at input boundaries (forms, provisioning) where a bad role should
// be rejected rather than silently demoted.
func ParseStrict(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return Student, nil
	case "teacher":
		return Teacher, nil
	case "admin":
		return Admin, nil
	case "superadmin":
		return SuperAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsValid reports whether r is one of the canonical roles.
func (r Role) IsValid() bool {
	switch r {
	case Student, Teacher, Admin, SuperAdmin:
		return true
	}
	return false
}

// String returns the canonical stored form.
func (r Role) String() string { return string(r) }

// RequiresOrganization reports whether a profile with this role must carry
// exactly one organization id. Super-admins are platform-level and carry none.
func (r Role) RequiresOrganization() bool { return r != SuperAdmin }

// RequiresClasses reports whether a profile with this role must reference at
// least one class.
func (r Role) RequiresClasses() bool { return r == Student }
