package community

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/session"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewRepository(localstore.New(client), nil)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func doctorSession() *session.Session {
	return &session.Session{IdentityID: "doc-1", DisplayName: "Dr. Chen", Role: session.RoleDoctor}
}

func patientSession() *session.Session {
	return &session.Session{IdentityID: "pat-1", DisplayName: "Ana", Role: session.RolePatient}
}

func TestListReturnsSeedNewestFirst(t *testing.T) {
	repo := newTestRepo(t)

	posts, err := repo.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 seeded posts, got %d", len(posts))
	}
	if posts[0].ID != 3 {
		t.Fatalf("expected newest post first, got id %d", posts[0].ID)
	}
}

func TestSearchMatchesTopic(t *testing.T) {
	repo := newTestRepo(t)

	posts, err := repo.List(context.Background(), "allerg")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 || posts[0].Topic != "Allergies" {
		t.Fatalf("unexpected search results: %+v", posts)
	}
}

func TestCreateMarksDoctorPosts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	post, err := repo.Create(ctx, doctorSession(), &CreatePostRequest{
		Title:   "Sleep hygiene basics",
		Content: "What actually moves the needle.",
		Topic:   "Wellness",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !post.AuthorDoctor {
		t.Fatal("expected doctor badge on doctor-authored post")
	}
	if post.ID != SeedMaxID+1 {
		t.Fatalf("expected id %d, got %d", SeedMaxID+1, post.ID)
	}

	patient, err := repo.Create(ctx, patientSession(), &CreatePostRequest{
		Title:   "Question",
		Content: "Is this normal?",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if patient.AuthorDoctor {
		t.Fatal("patient posts must not carry the doctor badge")
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, patientSession(), &CreatePostRequest{Content: "x"}); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := repo.Create(ctx, patientSession(), &CreatePostRequest{Title: "x"}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestAddCommentAppends(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	post, err := repo.AddComment(ctx, 1, patientSession(), "Very helpful, thank you.")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if post.CommentCount() != 3 {
		t.Fatalf("expected 3 comments, got %d", post.CommentCount())
	}
	last := post.Comments[len(post.Comments)-1]
	if last.Author != "Ana" || last.Content != "Very helpful, thank you." {
		t.Fatalf("unexpected comment: %+v", last)
	}

	if _, err := repo.AddComment(ctx, 99, patientSession(), "hi"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := repo.AddComment(ctx, 1, patientSession(), ""); !errors.Is(err, ErrInvalidComment) {
		t.Fatalf("expected ErrInvalidComment, got %v", err)
	}
}

func TestLikeIncrements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	post, err := repo.Like(ctx, 2)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if post.Likes != 13 {
		t.Fatalf("expected 13 likes, got %d", post.Likes)
	}

	again, err := repo.Like(ctx, 2)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if again.Likes != 14 {
		t.Fatalf("expected likes persisted between calls, got %d", again.Likes)
	}
}
