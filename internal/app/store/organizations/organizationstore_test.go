package organizationstore

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/cache"
	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/store/scoped"
	"github.com/classdeck/classdeck/internal/app/system/indexes"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/testutil"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)

	// The duplicate-name path depends on the unique index.
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	repo := scoped.New(docstore.New(db, zap.NewNop()), cache.New(0, nil), zap.NewNop())
	return New(repo)
}

func TestCreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := testutil.TestContext(t)

	org, err := store.Create(ctx, models.Organization{Name: "Acme Academy"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.NameCI != "acme academy" {
		t.Errorf("name_ci = %q, want folded name", org.NameCI)
	}
	if org.Status != "active" {
		t.Errorf("status = %q, want the active default", org.Status)
	}

	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Acme Academy" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	store := setupStore(t)
	ctx := testutil.TestContext(t)

	if _, err := store.Create(ctx, models.Organization{Name: "Dup Academy"}); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Folded comparison: differing case is still the same tenant name.
	_, err := store.Create(ctx, models.Organization{Name: "DUP Academy"})
	if !errors.Is(err, ErrDuplicateOrganization) {
		t.Errorf("got %v, want ErrDuplicateOrganization", err)
	}
}

func TestPageWalksAllRowsInOrder(t *testing.T) {
	store := setupStore(t)
	ctx := testutil.TestContext(t)

	const total = 7
	for i := 0; i < total; i++ {
		name := fmt.Sprintf("Org %02d", i)
		if _, err := store.Create(ctx, models.Organization{Name: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	seen := map[string]bool{}
	var prev string
	after := ""
	pages := 0
	for {
		orgs, next, err := store.Page(ctx, after, 3)
		if err != nil {
			t.Fatalf("Page: %v", err)
		}
		for _, o := range orgs {
			if seen[o.NameCI] {
				t.Fatalf("cursor repeated %q", o.NameCI)
			}
			seen[o.NameCI] = true
			if o.NameCI <= prev {
				t.Fatalf("out of order: %q after %q", o.NameCI, prev)
			}
			prev = o.NameCI
		}
		pages++
		if next == "" {
			break
		}
		after = next
		if pages > total {
			t.Fatal("cursor never terminated")
		}
	}

	if len(seen) != total {
		t.Errorf("walked %d organizations, want %d", len(seen), total)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := setupStore(t)
	ctx := testutil.TestContext(t)

	org, err := store.Create(ctx, models.Organization{Name: "Rename Me"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Update(ctx, org.ID, models.Organization{Name: "Renamed", Status: "inactive"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Renamed" || got.Status != "inactive" {
		t.Errorf("got name=%q status=%q", got.Name, got.Status)
	}

	if err := store.Delete(ctx, org.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, org.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestCountMatchesCreates(t *testing.T) {
	store := setupStore(t)
	ctx := testutil.TestContext(t)

	for i := 0; i < 4; i++ {
		if _, err := store.Create(ctx, models.Organization{Name: fmt.Sprintf("Count %d", i)}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
}
