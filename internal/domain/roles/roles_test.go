package roles

import "testing"

func TestParse_NormalizesCasing(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"admin", Admin},
		{"Admin", Admin},
		{"ADMIN", Admin},
		{"  admin  ", Admin},
		{"teacher", Teacher},
		{"Teacher", Teacher},
		{"student", Student},
		{"STUDENT", Student},
		{"superAdmin", SuperAdmin},
		{"superadmin", SuperAdmin},
		{"SUPERADMIN", SuperAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Parse(tt.input); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_UnknownFallsBackToStudent(t *testing.T) {
	for _, input := range []string{"", "owner", "root", "Administrator"} {
		if got := Parse(input); got != Student {
			t.Errorf("Parse(%q) = %q, want student", input, got)
		}
	}
}

func TestParseStrict_RejectsUnknown(t *testing.T) {
	if _, err := ParseStrict("owner"); err == nil {
		t.Error("expected error for unknown role")
	}
	if r, err := ParseStrict("superAdmin"); err != nil || r != SuperAdmin {
		t.Errorf("ParseStrict(superAdmin) = %q, %v", r, err)
	}
}

func TestParse_Idempotent(t *testing.T) {
	// Re-parsing a canonical value must yield the same role.
	for _, r := range All {
		if got := Parse(r.String()); got != r {
			t.Errorf("Parse(%q) = %q, not idempotent", r, got)
		}
	}
}

func TestRoleConstraints(t *testing.T) {
	if SuperAdmin.RequiresOrganization() {
		t.Error("superadmin must not require an organization")
	}
	for _, r := range []Role{Student, Teacher, Admin} {
		if !r.RequiresOrganization() {
			t.Errorf("%s must require an organization", r)
		}
	}
	if !Student.RequiresClasses() {
		t.Error("student must require classes")
	}
	if Teacher.RequiresClasses() {
		t.Error("teacher must not require classes")
	}
}
