package doctors

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/localstore"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewLocalRepository(localstore.New(client), nil, nil)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return NewHandler(repo, nil, nil)
}

func testRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/doctors", h.List)
	r.Post("/doctors", h.Create)
	r.Get("/doctors/{doctorID}", h.Get)
	r.Patch("/doctors/{doctorID}", h.Update)
	return r
}

func TestHandlerListReturnsSeed(t *testing.T) {
	router := testRouter(newTestHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list []Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 doctors, got %d", len(list))
	}
}

func TestHandlerListWithSearchTerm(t *testing.T) {
	router := testRouter(newTestHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors?term=neuro", nil))

	var list []Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Specialty != "Neurology" {
		t.Fatalf("unexpected search results: %+v", list)
	}
}

func TestHandlerGet(t *testing.T) {
	router := testRouter(newTestHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Name != "Dr. Michael Chen" {
		t.Fatalf("unexpected doctor: %+v", doc)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	router := testRouter(newTestHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerGetRejectsNonNumericID(t *testing.T) {
	router := testRouter(newTestHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerCreate(t *testing.T) {
	router := testRouter(newTestHandler(t))

	body, _ := json.Marshal(CreateDoctorRequest{Name: "Dr. Ada Okafor", Specialty: "Dermatology", Fee: 90})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/doctors", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != SeedMaxID+1 {
		t.Fatalf("expected allocated id %d, got %d", SeedMaxID+1, doc.ID)
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	router := testRouter(newTestHandler(t))

	body, _ := json.Marshal(CreateDoctorRequest{Specialty: "Dermatology"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/doctors", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerUpdate(t *testing.T) {
	router := testRouter(newTestHandler(t))

	body := []byte(`{"available": false}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/doctors/1", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Available {
		t.Fatal("expected availability to be off")
	}
}

func TestHandlerUpdateNotFound(t *testing.T) {
	router := testRouter(newTestHandler(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/doctors/77", bytes.NewReader([]byte(`{"fee": 1}`))))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
