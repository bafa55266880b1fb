package lighting

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the group table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE lighting_groups (
			location TEXT PRIMARY KEY,
			relays TEXT NOT NULL DEFAULT '[]',
			state TEXT NOT NULL DEFAULT 'OFF',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestRepository_Create(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	groups, err := repo.Create(ctx, []string{"kitchen", "hall"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Create() returned %d groups, want 2", len(groups))
	}

	for _, location := range []string{"kitchen", "hall"} {
		group, err := repo.Get(ctx, location)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", location, err)
		}
		if group.State != GroupStateOff {
			t.Errorf("Get(%q).State = %q, want OFF", location, group.State)
		}
		if len(group.Relays) != 0 {
			t.Errorf("Get(%q).Relays = %v, want empty", location, group.Relays)
		}
		if group.CreatedAt.IsZero() || group.UpdatedAt.IsZero() {
			t.Errorf("Get(%q) timestamps are zero", location)
		}
	}
}

func TestRepository_CreateAtomic(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, []string{"hall"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// "hall" already exists, so the whole batch must fail and "porch"
	// must not be written.
	_, err := repo.Create(ctx, []string{"porch", "hall"})
	if !errors.Is(err, ErrGroupExists) {
		t.Fatalf("Create() error = %v, want ErrGroupExists", err)
	}

	if _, err := repo.Get(ctx, "porch"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Get(porch) error = %v, want ErrGroupNotFound after failed batch", err)
	}
}

func TestRepository_CreateNoLocations(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	if _, err := repo.Create(context.Background(), nil); !errors.Is(err, ErrNoLocations) {
		t.Errorf("Create(nil) error = %v, want ErrNoLocations", err)
	}
	if _, err := repo.Create(context.Background(), []string{"", ""}); !errors.Is(err, ErrNoLocations) {
		t.Errorf("Create(empty keys) error = %v, want ErrNoLocations", err)
	}
}

func TestRepository_Remove(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, []string{"kitchen", "hall"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// "ghost" never existed; it contributes nothing, not an error.
	removed, err := repo.Remove(ctx, []string{"kitchen", "ghost"})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(removed) != 1 || removed[0].Location != "kitchen" {
		t.Errorf("Remove() = %+v, want just kitchen", removed)
	}

	if _, err := repo.Get(ctx, "kitchen"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Get(kitchen) error = %v, want ErrGroupNotFound after Remove", err)
	}
	if _, err := repo.Get(ctx, "hall"); err != nil {
		t.Errorf("Get(hall) error = %v, Remove touched an unrelated group", err)
	}
}

func TestRepository_AssignRelays(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, []string{"kitchen"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	group, err := repo.AssignRelays(ctx, "kitchen", []int{1, 2, 5})
	if err != nil {
		t.Fatalf("AssignRelays() error = %v", err)
	}
	if !reflect.DeepEqual(group.Relays, []int{1, 2, 5}) {
		t.Errorf("Relays = %v, want [1 2 5]", group.Relays)
	}

	// Replacement, not merge.
	group, err = repo.AssignRelays(ctx, "kitchen", []int{3})
	if err != nil {
		t.Fatalf("AssignRelays() error = %v", err)
	}
	if !reflect.DeepEqual(group.Relays, []int{3}) {
		t.Errorf("Relays = %v after reassignment, want [3]", group.Relays)
	}
}

func TestRepository_AssignRelaysNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.AssignRelays(context.Background(), "ghost", []int{1})
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("AssignRelays(ghost) error = %v, want ErrGroupNotFound", err)
	}
}

func TestRepository_Turn(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, []string{"kitchen", "hall", "porch"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	groups, err := repo.Turn(ctx, []string{"kitchen", "hall"}, GroupStateOn)
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Turn() returned %d groups, want 2", len(groups))
	}
	for _, g := range groups {
		if g.State != GroupStateOn {
			t.Errorf("group %s state = %q, want ON", g.Location, g.State)
		}
	}

	// The group outside the batch keeps its state.
	porch, err := repo.Get(ctx, "porch")
	if err != nil {
		t.Fatalf("Get(porch) error = %v", err)
	}
	if porch.State != GroupStateOff {
		t.Errorf("porch state = %q, want OFF", porch.State)
	}
}

func TestRepository_TurnPartialWrite(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, []string{"kitchen"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := repo.Turn(ctx, []string{"kitchen", "ghost"}, GroupStateOn)
	if !errors.Is(err, ErrPartialWrite) {
		t.Errorf("Turn() error = %v, want ErrPartialWrite when a key is missing", err)
	}
}

func TestRepository_TurnInvalidState(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Turn(context.Background(), []string{"kitchen"}, GroupState("DIMMED"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Turn() error = %v, want ErrInvalidState", err)
	}
}

func TestRepository_GetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Get(ghost) error = %v, want ErrGroupNotFound", err)
	}
}

func TestRepository_List(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	groups, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("List() = %d groups on empty table, want 0", len(groups))
	}

	if _, err := repo.Create(ctx, []string{"b", "a"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	groups, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(groups) != 2 || groups[0].Location != "a" || groups[1].Location != "b" {
		t.Errorf("List() = %+v, want [a b] ordered by location", groups)
	}
}

func TestGroup_DeepCopy(t *testing.T) {
	group := &Group{Location: "kitchen", Relays: []int{1, 2}, State: GroupStateOn}

	cpy := group.DeepCopy()
	cpy.Relays[0] = 99

	if group.Relays[0] != 1 {
		t.Error("DeepCopy() shares the relay slice with the original")
	}
}
