package domain

import "strings"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Member est l'utilisateur authentifié tel que renvoyé par le backend membre.
type Member struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Role              Role   `json:"role"`
	Active            bool   `json:"active"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	Plan              string `json:"plan,omitempty"`
}

func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// SameUsername compare des usernames comme le fait l'UI: insensible à la
// casse, espaces externes ignorés.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
