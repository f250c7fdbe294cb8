package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mediwrap/platform/internal/session"
)

type stubVerifier struct {
	sess *session.Session
	err  error
}

func (v *stubVerifier) Verify(_ context.Context, _ string) (*session.Session, error) {
	return v.sess, v.err
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthenticateAttachesSession(t *testing.T) {
	verifier := &stubVerifier{sess: &session.Session{IdentityID: "id-1", Role: session.RolePatient}}
	var got *session.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	Authenticate(verifier)(inner).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.IdentityID != "id-1" {
		t.Fatalf("expected session in context, got %+v", got)
	}
}

func TestAuthenticatePassesAnonymousThrough(t *testing.T) {
	verifier := &stubVerifier{err: session.ErrTokenInvalid}
	inner, called := okHandler()

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()
	Authenticate(verifier)(inner).ServeHTTP(rec, req)

	if !*called || rec.Code != http.StatusOK {
		t.Fatalf("expected anonymous pass-through, code=%d called=%v", rec.Code, *called)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	inner, called := okHandler()
	rec := httptest.NewRecorder()
	RequireAuth(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rec.Code != http.StatusUnauthorized || *called {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	inner, called := okHandler()
	guard := RequireRole(session.RoleAdmin)(inner)

	asRole := func(role session.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		ctx := session.WithSession(req.Context(), &session.Session{IdentityID: "id-9", Role: role})
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	if rec := asRole(session.RolePatient); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient, got %d", rec.Code)
	}
	if *called {
		t.Fatalf("handler must not run for forbidden role")
	}
	if rec := asRole(session.RoleAdmin); rec.Code != http.StatusOK || !*called {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
}
