package restaurants

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmcdole/foodpin/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "foodpin.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := &domain.Restaurant{
		Name:     "Cafe Deadend",
		Type:     "Coffee & Tea Shop",
		Location: "G/F, 72 Po Hing Fong, Sheung Wan, Hong Kong",
		Phone:    "232-923423",
		Image:    []byte{0xff, 0xd8, 0xff},
	}
	if err := s.Create(ctx, r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID == 0 || r.CreatedAt.IsZero() {
		t.Fatalf("Create did not set id/timestamps: %+v", r)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != r.Name || got.Type != r.Type || got.Location != r.Location || got.Phone != r.Phone {
		t.Errorf("Get = %+v", got)
	}
	if !bytes.Equal(got.Image, r.Image) {
		t.Errorf("image = %x", got.Image)
	}
	if got.IsVisited || got.Rating != "" {
		t.Errorf("new restaurant should be unvisited: %+v", got)
	}
}

func TestCreateRequiresName(t *testing.T) {
	s := openTestStore(t)
	if err := s.Create(context.Background(), &domain.Restaurant{Name: "  "}); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestListOrderedByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"Teakha", "bourke Street Bakery", "Homei"} {
		if err := s.Create(ctx, &domain.Restaurant{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	want := []string{"bourke Street Bakery", "Homei", "Teakha"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestUpdateAndSetVisit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := &domain.Restaurant{Name: "Homei", Type: "Cafe"}
	if err := s.Create(ctx, r); err != nil {
		t.Fatal(err)
	}

	r.Phone = "348-233423"
	if err := s.Update(ctx, r); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := s.SetVisit(ctx, r.ID, true, "Pretty good."); err != nil {
		t.Fatalf("SetVisit: %v", err)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Phone != "348-233423" || !got.IsVisited || got.Rating != "Pretty good." {
		t.Errorf("Get = %+v", got)
	}
}

func TestNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, 42); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if err := s.Update(ctx, &domain.Restaurant{ID: 42, Name: "x"}); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Errorf("Update err = %v", err)
	}
	if err := s.SetVisit(ctx, 42, true, ""); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Errorf("SetVisit err = %v", err)
	}
	if err := s.Delete(ctx, 42); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Errorf("Delete err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := &domain.Restaurant{Name: "Po's Atelier"}
	if err := s.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, r.ID); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}
