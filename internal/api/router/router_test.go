package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/appointments"
	"github.com/mediwrap/platform/internal/cart"
	"github.com/mediwrap/platform/internal/doctors"
	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/localstore"
	"github.com/mediwrap/platform/internal/session"
)

type testEnv struct {
	handler http.Handler
	svc     *session.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := localstore.New(client)
	bus := events.NewBus(client, nil)

	identities, err := session.NewLocalIdentityStore(store)
	if err != nil {
		t.Fatalf("identity store: %v", err)
	}
	profiles, err := session.NewLocalProfileStore(store)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	issuer := session.NewTokenIssuer("router-test-secret", time.Hour)
	svc := session.NewService(identities, profiles, issuer, bus, nil)

	doctorRepo, err := doctors.NewLocalRepository(store, bus, nil)
	if err != nil {
		t.Fatalf("doctor repo: %v", err)
	}
	apptRepo, err := appointments.NewLocalRepository(store, bus, nil)
	if err != nil {
		t.Fatalf("appointment repo: %v", err)
	}
	apptSvc := appointments.NewService(apptRepo, doctorRepo, nil)

	handler := New(&Config{
		Verifier:            svc,
		SessionHandler:      session.NewHandler(svc, nil),
		DoctorsHandler:      doctors.NewHandler(doctorRepo, nil, nil),
		CartHandler:         cart.NewHandler(cart.NewManager(store, nil, nil), nil),
		AppointmentsHandler: appointments.NewHandler(apptSvc, nil),
	})
	return &testEnv{handler: handler, svc: svc}
}

func (env *testEnv) token(t *testing.T, email, role string) string {
	t.Helper()
	_, token, err := env.svc.Signup(context.Background(), email, "password1234", "Test User", role)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health body: %s", rec.Body.String())
	}
}

func TestPublicDoctorListing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/doctors", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCartRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/cart", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token := env.token(t, "ana@example.com", "patient")
	if rec := env.do(t, http.MethodGet, "/cart", token, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestStaleTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/cart", "not-a-real-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestAdminRoutesGatedByRole(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"Dr. New Person","specialty":"Dermatology"}`

	patient := env.token(t, "pat@example.com", "patient")
	if rec := env.do(t, http.MethodPost, "/admin/doctors", patient, body); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient, got %d", rec.Code)
	}

	admin := env.token(t, "ops@example.com", "admin")
	if rec := env.do(t, http.MethodPost, "/admin/doctors", admin, body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDoctorQueueGatedByRole(t *testing.T) {
	env := newTestEnv(t)

	patient := env.token(t, "pat2@example.com", "patient")
	if rec := env.do(t, http.MethodGet, "/doctors/1/appointments", patient, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient, got %d", rec.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.token(t, "flow@example.com", "patient")

	rec := env.do(t, http.MethodPost, "/auth/login", "", `{"email":"flow@example.com","password":"password1234"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 login, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/auth/login", "", `{"email":"flow@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}
