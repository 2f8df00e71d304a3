package models

import "time"

type Member struct {
	ID        string    `json:"id" yaml:"id"`
	FirstName string    `json:"first_name" yaml:"first_name"`
	LastName  string    `json:"last_name" yaml:"last_name"`
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"phone" yaml:"phone"`
	IsAdmin   bool      `json:"is_admin" yaml:"is_admin"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// IsProfileComplete mirrors the login-time rule: a member may book once
// e-mail and both names are filled in.
func (m *Member) IsProfileComplete() bool {
	return m.Email != "" && m.FirstName != "" && m.LastName != ""
}

// Claims is the verified identity attached to a request.
type Claims struct {
	MemberID          string `json:"id"`
	Phone             string `json:"phone"`
	IsProfileComplete bool   `json:"is_profile_complete"`
	IsAdmin           bool   `json:"is_admin"`
}
