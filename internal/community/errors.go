package community

import "errors"

var (
	// ErrPostNotFound is returned when a post id does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidTitle is returned when the title is missing.
	ErrInvalidTitle = errors.New("title is required")

	// ErrInvalidContent is returned when the body is missing.
	ErrInvalidContent = errors.New("content is required")

	// ErrInvalidComment is returned for empty comments.
	ErrInvalidComment = errors.New("comment content is required")
)
