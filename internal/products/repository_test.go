package products

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/localstore"
)

func newLocalRepo(t *testing.T) *LocalRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewLocalRepository(localstore.New(client), nil, nil)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func TestLocalListReturnsSeedOnFirstRun(t *testing.T) {
	repo := newLocalRepo(t)

	list, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 7 {
		t.Fatalf("expected 7 seeded products, got %d", len(list))
	}
	if list[0].Name != "Paracetamol 500mg" {
		t.Fatalf("unexpected first product: %+v", list[0])
	}
}

func TestLocalListFilters(t *testing.T) {
	repo := newLocalRepo(t)
	ctx := context.Background()

	byCategory, err := repo.List(ctx, Filter{Category: "devices"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(byCategory))
	}

	byTerm, err := repo.List(ctx, Filter{Term: "antibiotic"})
	if err != nil {
		t.Fatalf("list by term: %v", err)
	}
	if len(byTerm) != 1 || byTerm[0].Name != "Amoxicillin 250mg" {
		t.Fatalf("unexpected term results: %+v", byTerm)
	}

	combined, err := repo.List(ctx, Filter{Category: "Medication", Term: "fever"})
	if err != nil {
		t.Fatalf("list combined: %v", err)
	}
	if len(combined) != 1 || combined[0].ID != 1 {
		t.Fatalf("unexpected combined results: %+v", combined)
	}
}

func TestLocalSeedMarksPrescriptionProducts(t *testing.T) {
	repo := newLocalRepo(t)

	product, err := repo.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !product.RequiresPrescription {
		t.Fatal("expected Amoxicillin to require a prescription")
	}
}

func TestLocalGetUnknownID(t *testing.T) {
	repo := newLocalRepo(t)
	if _, err := repo.Get(context.Background(), 99); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestLocalAddAllocatesIDBeyondSeed(t *testing.T) {
	repo := newLocalRepo(t)

	product, err := repo.Add(context.Background(), &AddProductRequest{
		Name:     "Ibuprofen 200mg",
		Category: "Medication",
		Price:    4.5,
		Stock:    60,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if product.ID != SeedMaxID+1 {
		t.Fatalf("expected id %d, got %d", SeedMaxID+1, product.ID)
	}
}

func TestLocalAddValidation(t *testing.T) {
	repo := newLocalRepo(t)
	ctx := context.Background()

	if _, err := repo.Add(ctx, &AddProductRequest{Price: 1}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := repo.Add(ctx, &AddProductRequest{Name: "X", Price: -1}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := repo.Add(ctx, &AddProductRequest{Name: "X", Stock: -3}); !errors.Is(err, ErrInvalidStock) {
		t.Fatalf("expected ErrInvalidStock, got %v", err)
	}
}

func TestLocalUpdateStock(t *testing.T) {
	repo := newLocalRepo(t)
	ctx := context.Background()

	product, err := repo.UpdateStock(ctx, 6, 25)
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if product.Stock != 25 || !product.InStock() {
		t.Fatalf("unexpected product after restock: %+v", product)
	}

	if _, err := repo.UpdateStock(ctx, 6, -1); !errors.Is(err, ErrInvalidStock) {
		t.Fatalf("expected ErrInvalidStock, got %v", err)
	}
	if _, err := repo.UpdateStock(ctx, 404, 5); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
