package auth

import "strings"

// SessionUser is the signed-in user as cached in browser storage.
type SessionUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Avatar  string `json:"avatar,omitempty"`
}

// remoteUser is the user object of /auth responses.
type remoteUser struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsAdmin   bool   `json:"isAdmin"`
	Avatar    string `json:"avatar"`
}

func (u remoteUser) sessionUser() *SessionUser {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if name == "" {
		name = u.Email
	}
	return &SessionUser{
		Name:    name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin || strings.EqualFold(u.Role, "admin"),
		Avatar:  u.Avatar,
	}
}

// Visibility lists which account controls a page shows.
type Visibility struct {
	SignedIn     bool
	ShowLogin    bool
	ShowRegister bool
	ShowProfile  bool
	ShowLogout   bool
	ShowAdmin    bool
}

// VisibilityFor derives the visible controls for u (nil when signed out).
func VisibilityFor(u *SessionUser) Visibility {
	if u == nil {
		return Visibility{ShowLogin: true, ShowRegister: true}
	}
	return Visibility{
		SignedIn:    true,
		ShowProfile: true,
		ShowLogout:  true,
		ShowAdmin:   u.IsAdmin,
	}
}
