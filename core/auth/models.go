package auth

import "time"

// Roles
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
	RoleGuest   = "guest"
)

var (
	AllRoles = []string{RoleAdmin, RoleStudent, RoleGuest}

	rolePermissions = map[string][]string{
		RoleAdmin: {
			"read_all_files",
			"upload_files",
			"delete_files",
			"manage_users",
			"view_submissions",
			"manage_subjects",
			"system_admin",
		},
		RoleStudent: {
			"read_assigned_files",
			"download_files",
			"upload_submissions",
			"view_own_submissions",
		},
		RoleGuest: {
			"read_public_info",
		},
	}
)

// RolePermissions returns a copy of the permission set granted to a role.
func RolePermissions(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Identity is the set of verified attributes consumed from an identity
// assertion. It is produced by an IdentityVerifier and consumed once by the
// exchange; it is never persisted.
type Identity struct {
	UID           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// User is the authenticated user as transmitted on the wire.
type User struct {
	UID           string   `json:"uid"`
	Email         string   `json:"email"`
	Name          string   `json:"name,omitempty"`
	Picture       string   `json:"picture,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

func (u User) IsGuest() bool {
	return u.Role == RoleGuest
}

// HasPermission reports whether the user's permission set includes perm.
func (u User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Session is the result of a successful exchange or refresh.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
