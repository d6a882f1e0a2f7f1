package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// IsAdmin reports whether the session belongs to staff
func (s *SessionData) IsAdmin() bool {
	return s.IsStaff || s.IsSuperuser
}
