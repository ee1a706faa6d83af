package auth

import (
	"reflect"
	"testing"
)

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role  string
		perms []string
	}{
		{
			role: RoleAdmin,
			perms: []string{
				"read_all_files", "upload_files", "delete_files", "manage_users",
				"view_submissions", "manage_subjects", "system_admin",
			},
		},
		{
			role:  RoleStudent,
			perms: []string{"read_assigned_files", "download_files", "upload_submissions", "view_own_submissions"},
		},
		{
			role:  RoleGuest,
			perms: []string{"read_public_info"},
		},
		{role: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := RolePermissions(tt.role); !reflect.DeepEqual(got, tt.perms) {
				t.Errorf("RolePermissions(%q) = %v, want %v", tt.role, got, tt.perms)
			}
		})
	}

	// mutating a returned slice must not touch the table
	perms := RolePermissions(RoleGuest)
	perms[0] = "everything"
	if got := RolePermissions(RoleGuest); got[0] != "read_public_info" {
		t.Errorf("RolePermissions() table mutated: %v", got)
	}
}

func TestUserPredicates(t *testing.T) {
	admin := User{Role: RoleAdmin}
	if !admin.IsAdmin() || admin.IsStudent() || admin.IsGuest() {
		t.Errorf("admin predicates wrong: %v %v %v", admin.IsAdmin(), admin.IsStudent(), admin.IsGuest())
	}
	student := User{Role: RoleStudent}
	if student.IsAdmin() || !student.IsStudent() || student.IsGuest() {
		t.Errorf("student predicates wrong: %v %v %v", student.IsAdmin(), student.IsStudent(), student.IsGuest())
	}
	guest := User{Role: RoleGuest}
	if guest.IsAdmin() || guest.IsStudent() || !guest.IsGuest() {
		t.Errorf("guest predicates wrong: %v %v %v", guest.IsAdmin(), guest.IsStudent(), guest.IsGuest())
	}
}

func TestUserHasPermission(t *testing.T) {
	usr := User{Role: RoleStudent, Permissions: RolePermissions(RoleStudent)}
	if !usr.HasPermission("upload_submissions") {
		t.Error(`HasPermission("upload_submissions") = false, want true`)
	}
	if usr.HasPermission("system_admin") {
		t.Error(`HasPermission("system_admin") = true, want false`)
	}
}
