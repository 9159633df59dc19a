package domain

import "time"

// CommentAuthor est le sous-ensemble du membre exposé sur un commentaire.
type CommentAuthor struct {
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

type Comment struct {
	ID        int64         `json:"id"`
	Content   string        `json:"content"`
	Creator   CommentAuthor `json:"commentCreator"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CommentPage est une page de pagination avant (append-only, pas de retour
// arrière).
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	Page       int       `json:"page"`
	Last       bool      `json:"last"`
	UserLogged bool      `json:"userLogged"`
}
