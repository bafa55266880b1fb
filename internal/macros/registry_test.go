package macros

import (
	"context"
	"errors"
	"testing"
)

func setupRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(NewSQLiteRepository(setupTestDB(t)))
}

func TestRegistry_CreateAndGet(t *testing.T) {
	registry := setupRegistry(t)
	ctx := context.Background()

	macro := validMacro()
	if err := registry.CreateMacro(ctx, macro); err != nil {
		t.Fatalf("CreateMacro() error = %v", err)
	}

	got, err := registry.GetMacro(ctx, macro.ID)
	if err != nil {
		t.Fatalf("GetMacro() error = %v", err)
	}
	if got.Name != macro.Name {
		t.Errorf("Name = %q, want %q", got.Name, macro.Name)
	}

	// The cached copy must be isolated from caller mutation.
	got.Name = "mutated"
	again, _ := registry.GetMacro(ctx, macro.ID)
	if again.Name != macro.Name {
		t.Error("mutating a returned macro leaked into the cache")
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	registry := setupRegistry(t)

	_, err := registry.GetMacro(context.Background(), "ghost")
	if !errors.Is(err, ErrMacroNotFound) {
		t.Errorf("GetMacro(ghost) error = %v, want ErrMacroNotFound", err)
	}
}

func TestRegistry_RefreshCache(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	macro := validMacro()
	if err := repo.Create(ctx, macro); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A fresh registry sees nothing until the cache is loaded.
	registry := NewRegistry(repo)
	if _, err := registry.GetMacro(ctx, macro.ID); !errors.Is(err, ErrMacroNotFound) {
		t.Fatalf("GetMacro() before refresh error = %v, want ErrMacroNotFound", err)
	}

	if err := registry.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	if _, err := registry.GetMacro(ctx, macro.ID); err != nil {
		t.Errorf("GetMacro() after refresh error = %v", err)
	}
}

func TestRegistry_ListLightingMacros(t *testing.T) {
	registry := setupRegistry(t)
	ctx := context.Background()

	a := validMacro()
	a.Name = "Zeta"
	b := validMacro()
	b.Name = "Alpha"

	if err := registry.CreateMacro(ctx, a); err != nil {
		t.Fatalf("CreateMacro() error = %v", err)
	}
	if err := registry.CreateMacro(ctx, b); err != nil {
		t.Fatalf("CreateMacro() error = %v", err)
	}

	all := registry.ListLightingMacros(ctx)
	if len(all) != 2 || all[0].Name != "Alpha" || all[1].Name != "Zeta" {
		t.Errorf("ListLightingMacros() = %+v, want ordered by name", all)
	}
}

func TestRegistry_Delete(t *testing.T) {
	registry := setupRegistry(t)
	ctx := context.Background()

	macro := validMacro()
	if err := registry.CreateMacro(ctx, macro); err != nil {
		t.Fatalf("CreateMacro() error = %v", err)
	}
	if err := registry.DeleteMacro(ctx, macro.ID); err != nil {
		t.Fatalf("DeleteMacro() error = %v", err)
	}
	if _, err := registry.GetMacro(ctx, macro.ID); !errors.Is(err, ErrMacroNotFound) {
		t.Errorf("GetMacro() error = %v after delete, want ErrMacroNotFound", err)
	}
}

func TestRegistry_Update(t *testing.T) {
	registry := setupRegistry(t)
	ctx := context.Background()

	macro := validMacro()
	if err := registry.CreateMacro(ctx, macro); err != nil {
		t.Fatalf("CreateMacro() error = %v", err)
	}

	macro.Name = "Renamed"
	if err := registry.UpdateMacro(ctx, macro); err != nil {
		t.Fatalf("UpdateMacro() error = %v", err)
	}

	got, err := registry.GetMacro(ctx, macro.ID)
	if err != nil {
		t.Fatalf("GetMacro() error = %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
}
