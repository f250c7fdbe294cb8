package community

import (
	"strings"
	"time"
)

// Comment is one reply on a post.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"author_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is a community discussion entry. Doctor-authored posts carry a
// verification flag so the UI can badge them.
type Post struct {
	ID           int64     `json:"id"`
	Author       string    `json:"author"`
	AuthorID     string    `json:"author_id,omitempty"`
	AuthorDoctor bool      `json:"author_doctor"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Topic        string    `json:"topic"`
	Likes        int       `json:"likes"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommentCount is derived, never stored separately from the list itself.
func (p *Post) CommentCount() int {
	return len(p.Comments)
}

// CreatePostRequest is the payload for publishing a post.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Topic   string `json:"topic"`
}

// Validate checks required fields.
func (r *CreatePostRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrInvalidTitle
	}
	if strings.TrimSpace(r.Content) == "" {
		return ErrInvalidContent
	}
	return nil
}

func (p *Post) matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term) ||
		strings.Contains(strings.ToLower(p.Topic), term)
}
