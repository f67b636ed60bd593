package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product_catalog/domain"
	"product_catalog/store"
)

func TestCreate_ValidationErrors(t *testing.T) {
	defer resetCLI()
	mem := store.NewInMemoryStore()
	productStore = mem

	_, err := run("create", "--id", "ab", "--name", "Valid Name", "--description", "Valid description here",
		"--logo", "L", "--date-release", "2020-01-01")
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(mustList(t, mem)); n != 0 {
		t.Fatalf("validation failure reached the store: %d products", n)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	defer resetCLI()
	mem, _ := store.NewStore(context.Background(), true)
	productStore = mem

	_, err := run("create", "--id", "trj-crd", "--name", "Tarjeta nueva", "--description", "Otra tarjeta de credito",
		"--logo", "logo.png", "--date-release", nextMonth())
	if !domain.IsDuplicateProductError(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCreate_BadDate(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	if _, err := run("create", "--id", "abc", "--date-release", "01/02/2030"); err == nil {
		t.Fatalf("expected error for malformed date, got nil")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	_, err := run("update", "missing", "--name", "Whatever")
	if !domain.IsProductNotFoundError(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGet_NotFoundIsNotAnError(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	if _, err := run("get", "missing"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	if _, err := run("delete", "--force", "missing"); !domain.IsProductNotFoundError(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestList_PageOutOfRange(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	if _, err := run("list", "--page", "3"); err == nil {
		t.Fatalf("expected error for out of range page, got nil")
	}
}

func TestImport_UnsupportedFormat(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	path := writeTemp(t, "bad_import.json", "this is not json")
	if _, err := run("import", "--file", path); err == nil {
		t.Fatalf("expected error for unsupported import format, got nil")
	}
}

func TestImport_EmptyFile(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	path := writeTemp(t, "empty.json", "  \n")
	if _, err := run("import", "--file", path); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestImport_NDJSON(t *testing.T) {
	defer resetCLI()
	mem := store.NewInMemoryStore()
	productStore = mem

	path := writeTemp(t, "import.ndjson",
		`{"id":"n1-abc","name":"Nuevo uno","description":"Producto importado uno","logo":"l","date_release":"2030-01-01","date_revision":"2031-01-01"}`+"\n"+
			`{"id":"n2-abc","name":"Nuevo dos","description":"Producto importado dos","logo":"l","date_release":"2030-01-01","date_revision":"2031-01-01"}`+"\n"+
			`{"id":"n1-abc","name":"Nuevo uno","description":"Producto importado uno","logo":"l","date_release":"2030-01-01","date_revision":"2031-01-01"}`+"\n")

	out, err := run("import", "--file", path, "--concurrency", "2")
	if err != nil {
		t.Fatalf("expected successful NDJSON import, got error: %v", err)
	}
	if !strings.Contains(out, "imported 2, skipped 1") {
		t.Fatalf("unexpected summary %q", out)
	}
	if n := len(mustList(t, mem)); n != 2 {
		t.Fatalf("got %d products, want 2", n)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	defer resetCLI()
	seeded, _ := store.NewStore(context.Background(), true)
	productStore = seeded

	path := filepath.Join(t.TempDir(), "export.json")
	if _, err := run("export", "--file", path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	resetCLI()
	fresh := store.NewInMemoryStore()
	productStore = fresh
	if _, err := run("import", "--file", path); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if got, want := len(mustList(t, fresh)), len(store.Catalog()); got != want {
		t.Fatalf("got %d products, want %d", got, want)
	}
}

func TestExport_NoFileFlag(t *testing.T) {
	defer resetCLI()
	productStore = store.NewInMemoryStore()

	if _, err := run("export"); err == nil {
		t.Fatalf("expected error when export --file missing, got nil")
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustList(t *testing.T, s domain.ProductStore) []domain.Product {
	t.Helper()
	out, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return out
}
