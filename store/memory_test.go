package store

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"product_catalog/domain"
)

func product(id string) domain.Product {
	release := domain.NewDate(2026, time.December, 1)
	return domain.Product{
		ID:           id,
		Name:         "Product " + id,
		Description:  "Description of " + id,
		Logo:         "https://example.com/" + id + ".png",
		DateRelease:  release,
		DateRevision: release.AddYears(1),
	}
}

func strPtr(s string) *string { return &s }

func TestCreateGet_RoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	in := product("abc12")
	stored, err := s.Create(ctx, in)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if stored != in {
		t.Fatalf("create returned %+v, want %+v", stored, in)
	}

	got, err := s.Get(ctx, "abc12")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != in {
		t.Fatalf("get returned %+v, want %+v", got, in)
	}
}

func TestCreate_Uniqueness(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, product("dup")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	ok, err := s.Exists(ctx, "dup")
	if err != nil || !ok {
		t.Fatalf("expected exists=true, got %v (err=%v)", ok, err)
	}

	second := product("dup")
	second.Name = "Other name"
	if _, err := s.Create(ctx, second); !domain.IsDuplicateProductError(err) {
		t.Fatalf("expected DuplicateProductError, got %v", err)
	}

	got, _ := s.Get(ctx, "dup")
	if got.Name != product("dup").Name {
		t.Fatalf("rejected create must not overwrite the record, got %+v", got)
	}
}

func TestGetUpdateDelete_NotFound(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	t.Run("get not found", func(t *testing.T) {
		_, err := s.Get(ctx, "no-such")
		if !domain.IsProductNotFoundError(err) {
			t.Fatalf("expected ProductNotFoundError, got %v", err)
		}
	})

	t.Run("update not found", func(t *testing.T) {
		_, err := s.Update(ctx, "no-such", domain.ProductPatch{Name: strPtr("Whatever")})
		if !domain.IsProductNotFoundError(err) {
			t.Fatalf("expected ProductNotFoundError, got %v", err)
		}
	})

	t.Run("delete not found", func(t *testing.T) {
		err := s.Delete(ctx, "no-such")
		if !domain.IsProductNotFoundError(err) {
			t.Fatalf("expected ProductNotFoundError, got %v", err)
		}
	})

	t.Run("exists false", func(t *testing.T) {
		ok, err := s.Exists(ctx, "no-such")
		if err != nil || ok {
			t.Fatalf("expected exists=false, got %v (err=%v)", ok, err)
		}
	})
}

func TestUpdate_ShallowMerge(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	orig := product("u1")
	_, _ = s.Create(ctx, orig)

	newRelease := domain.NewDate(2027, time.January, 5)
	merged, err := s.Update(ctx, "u1", domain.ProductPatch{
		Description: strPtr("A brand new description"),
		DateRelease: &newRelease,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := orig
	want.Description = "A brand new description"
	want.DateRelease = newRelease
	if merged != want {
		t.Fatalf("update returned %+v, want %+v", merged, want)
	}
	got, _ := s.Get(ctx, "u1")
	if got != want {
		t.Fatalf("get after update returned %+v, want %+v", got, want)
	}
}

func TestList_InsertionOrder(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	out, err := s.List(ctx)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty list, got %v (err=%v)", out, err)
	}

	for _, id := range []string{"c", "a", "b", "d"} {
		_, _ = s.Create(ctx, product(id))
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, _ = s.Create(ctx, product("a"))

	out, _ = s.List(ctx)
	want := []string{"c", "b", "d", "a"}
	if len(out) != len(want) {
		t.Fatalf("expected %d products, got %d", len(want), len(out))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, out[i].ID)
		}
	}

	// the index must follow the shifted positions
	got, err := s.Get(ctx, "d")
	if err != nil || got.ID != "d" {
		t.Fatalf("get after delete returned %+v (err=%v)", got, err)
	}

	// callers get a copy
	out[0].Name = "mutated"
	again, _ := s.List(ctx)
	if again[0].Name == "mutated" {
		t.Fatal("List must not expose internal storage")
	}
}

func TestCanceledContext(t *testing.T) {
	s := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Create(ctx, product("x1")); err == nil {
		t.Fatal("expected context error on create")
	}
	if _, err := s.List(ctx); err == nil {
		t.Fatal("expected context error on list")
	}
	if _, err := s.Exists(ctx, "x1"); err == nil {
		t.Fatal("expected context error on exists")
	}
}

func TestSeed_SkipsDuplicates(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_, _ = s.Create(ctx, product("b"))

	n, err := s.Seed(ctx, []domain.Product{product("a"), product("b"), product("c")})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 added, got %d", n)
	}
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup

	n := 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		id := "p-" + strconv.Itoa(i)
		go func(id string) {
			defer wg.Done()
			_, _ = s.Create(ctx, product(id))
			_, _ = s.Get(ctx, id)
		}(id)
	}
	wg.Wait()

	out, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != n {
		t.Fatalf("expected %d products, got %d", n, len(out))
	}
}

func TestInMemoryStore_ConcurrentDuplicateCreate(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, product("same")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful create, got %d", succeeded)
	}
}

func BenchmarkInMemoryStore_Create(b *testing.B) {
	s := NewInMemoryStore()
	for i := 0; i < b.N; i++ {
		_, _ = s.Create(context.Background(), product("b-"+strconv.Itoa(i)))
	}
}

func BenchmarkInMemoryStore_Get(b *testing.B) {
	s := NewInMemoryStore()
	for i := 0; i < 1000; i++ {
		_, _ = s.Create(context.Background(), product("b-get-"+strconv.Itoa(i)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(context.Background(), "b-get-"+strconv.Itoa(i%1000))
	}
}
