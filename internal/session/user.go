package session

// Role is the back-office privilege level of a user
type Role string

const (
	RoleNone       Role = "none"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Privileged reports whether the role may use the admin panel
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Label returns the human readable role name
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	default:
		return "None"
	}
}

// User is the profile returned by the login endpoint and stored next to
// the tokens.
type User struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Role derives the privilege level from the staff/superuser flags
func (u *User) Role() Role {
	switch {
	case u.IsSuperuser:
		return RoleSuperAdmin
	case u.IsStaff:
		return RoleAdmin
	default:
		return RoleNone
	}
}

// DisplayName prefers the first name, then the username, then the email
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
