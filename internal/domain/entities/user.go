package entities

import "strings"

// User is the authenticated account as returned by the upstream whoami endpoint
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email"`
	TenantID      string `json:"tenantId"`
	EmailVerified bool   `json:"emailVerified"`
	BirthDate     string `json:"birthDate,omitempty"`
}

// DisplayName joins first and last name
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Name      string `json:"name"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	BirthDate string `json:"birthDate"`
}

// PasswordChange is the body sent to the upstream change-password endpoint
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Credentials is the sign-in body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up body
type Registration struct {
	Name     string `json:"name"`
	LastName string `json:"lastName,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
