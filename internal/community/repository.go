package community

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

const postsCollection = "community-posts"

// Repository serves community posts from the local persistent store.
// Likes and comments rewrite the whole collection like every other
// local-store mutation.
type Repository struct {
	store  *localstore.Store
	logger *logging.Logger
}

// NewRepository registers the posts seed and returns the repository.
func NewRepository(store *localstore.Store, logger *logging.Logger) (*Repository, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := store.RegisterSeed(postsCollection, Seed(), SeedMaxID); err != nil {
		return nil, err
	}
	return &Repository{store: store, logger: logger}, nil
}

func (r *Repository) load(ctx context.Context) ([]Post, error) {
	payload, err := r.store.Load(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("community: load posts: %w", err)
	}
	var posts []Post
	if err := json.Unmarshal(payload, &posts); err != nil {
		return nil, fmt.Errorf("community: decode posts: %w", err)
	}
	return posts, nil
}

func (r *Repository) save(ctx context.Context, posts []Post) error {
	payload, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("community: encode posts: %w", err)
	}
	if err := r.store.Save(ctx, postsCollection, payload); err != nil {
		return fmt.Errorf("community: save posts: %w", err)
	}
	return nil
}

// List returns posts, optionally narrowed by a search term over title,
// content, and topic. Newest first.
func (r *Repository) List(ctx context.Context, term string) ([]Post, error) {
	posts, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]Post, 0, len(posts))
	for i := len(posts) - 1; i >= 0; i-- {
		if posts[i].matches(term) {
			results = append(results, posts[i])
		}
	}
	return results, nil
}

// Get returns one post by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Post, error) {
	posts, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}
	return nil, ErrPostNotFound
}

// Create publishes a post authored by the session's identity. Doctor
// sessions get the verification badge.
func (r *Repository) Create(ctx context.Context, sess *session.Session, req *CreatePostRequest) (*Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	posts, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := r.store.NextID(ctx, postsCollection)
	if err != nil {
		return nil, fmt.Errorf("community: allocate id: %w", err)
	}
	post := Post{
		ID:           id,
		Author:       sess.DisplayName,
		AuthorID:     sess.IdentityID,
		AuthorDoctor: sess.Role == session.RoleDoctor,
		Title:        req.Title,
		Content:      req.Content,
		Topic:        req.Topic,
		Comments:     []Comment{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.save(ctx, append(posts, post)); err != nil {
		return nil, err
	}
	return &post, nil
}

// AddComment appends a comment to a post.
func (r *Repository) AddComment(ctx context.Context, postID int64, sess *session.Session, content string) (*Post, error) {
	if content == "" {
		return nil, ErrInvalidComment
	}
	posts, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID != postID {
			continue
		}
		comment := Comment{
			ID:        int64(len(posts[i].Comments)) + 1,
			Author:    sess.DisplayName,
			AuthorID:  sess.IdentityID,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		}
		posts[i].Comments = append(posts[i].Comments, comment)
		if err := r.save(ctx, posts); err != nil {
			return nil, err
		}
		updated := posts[i]
		return &updated, nil
	}
	return nil, ErrPostNotFound
}

// Like increments the post's like counter.
func (r *Repository) Like(ctx context.Context, postID int64) (*Post, error) {
	posts, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID != postID {
			continue
		}
		posts[i].Likes++
		if err := r.save(ctx, posts); err != nil {
			return nil, err
		}
		updated := posts[i]
		return &updated, nil
	}
	return nil, ErrPostNotFound
}
