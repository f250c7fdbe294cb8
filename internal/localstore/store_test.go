package localstore

import (
	"context"
	"encoding/json"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestLoadSeedsOnFirstRun(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	seed := []record{{ID: 1, Name: "Paracetamol 500mg"}, {ID: 2, Name: "Amoxicillin 250mg"}}
	if err := store.RegisterSeed("products", seed, 2); err != nil {
		t.Fatalf("register seed: %v", err)
	}

	payload, err := store.Load(ctx, "products")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}

	var got []record
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Paracetamol 500mg" {
		t.Fatalf("unexpected seed payload: %+v", got)
	}

	// Subsequent loads return the same persisted data.
	again, err := store.Load(ctx, "products")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if string(again) != string(payload) {
		t.Error("expected identical payload on repeat load")
	}
}

func TestLoadUnknownCollection(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Load(context.Background(), "nonsense"); err == nil {
		t.Fatal("expected error for unseeded collection")
	}
}

func TestSaveOverwritesWholesale(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.RegisterSeed("doctors", []record{{ID: 1, Name: "Dr. Sarah Johnson"}}, 1); err != nil {
		t.Fatalf("register seed: %v", err)
	}
	if _, err := store.Load(ctx, "doctors"); err != nil {
		t.Fatalf("load: %v", err)
	}

	updated, _ := json.Marshal([]record{{ID: 5, Name: "Dr. Michael Chen"}})
	if err := store.Save(ctx, "doctors", updated); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := store.Load(ctx, "doctors")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	var got []record
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("expected overwrite, got %+v", got)
	}
}

func TestSaveRejectsMalformedPayload(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save(context.Background(), "doctors", []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestCorruptPayloadIsReseeded(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	seed := []record{{ID: 1, Name: "Dr. Sarah Johnson"}}
	if err := store.RegisterSeed("doctors", seed, 1); err != nil {
		t.Fatalf("register seed: %v", err)
	}

	mr.Set("mediwrap:collection:doctors", "{corrupted")

	payload, err := store.Load(ctx, "doctors")
	if err != nil {
		t.Fatalf("load after corruption: %v", err)
	}
	var got []record
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Dr. Sarah Johnson" {
		t.Fatalf("expected reseeded data, got %+v", got)
	}
}

func TestNextIDIsMonotonicAndSkipsSeededRange(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.RegisterSeed("products", []record{{ID: 1}, {ID: 4}}, 4); err != nil {
		t.Fatalf("register seed: %v", err)
	}
	if _, err := store.Load(ctx, "products"); err != nil {
		t.Fatalf("load: %v", err)
	}

	first, err := store.NextID(ctx, "products")
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if first != 5 {
		t.Fatalf("expected first allocated id 5, got %d", first)
	}

	second, err := store.NextID(ctx, "products")
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if second != 6 {
		t.Fatalf("expected 6, got %d", second)
	}
}

func TestNextIDSurvivesDeletionOfMaxRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.RegisterSeed("appointments", []record{}, 0); err != nil {
		t.Fatalf("register seed: %v", err)
	}
	if _, err := store.Load(ctx, "appointments"); err != nil {
		t.Fatalf("load: %v", err)
	}

	id1, _ := store.NextID(ctx, "appointments")

	// Simulate delete-then-reload of the record holding the max ID: the
	// collection is emptied, but the counter must not rewind.
	empty, _ := json.Marshal([]record{})
	if err := store.Save(ctx, "appointments", empty); err != nil {
		t.Fatalf("save: %v", err)
	}

	id2, err := store.NextID(ctx, "appointments")
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("expected id after deletion (%d) to exceed previous (%d)", id2, id1)
	}
}

func TestDeleteRemovesCollection(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "cart:user-1", []byte(`[{"id":7}]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "cart:user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("mediwrap:collection:cart:user-1") {
		t.Fatal("expected key to be removed")
	}
}
