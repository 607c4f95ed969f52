package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/foodpin/internal/domain"
)

func openTestStore(t *testing.T, dir string) *CacheStore {
	t.Helper()
	s, err := NewCacheStore(dir, "http://cloud.example.com/")
	if err != nil {
		t.Fatalf("NewCacheStore: %v", err)
	}
	return s
}

func TestImagePathsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s := openTestStore(t, dir)
	if err := s.SaveImagePath("rec-1", "/cache/assets/a.jpg"); err != nil {
		t.Fatalf("SaveImagePath: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTestStore(t, dir)
	defer s.Close()

	path, ok := s.GetImagePath("rec-1")
	if !ok || path != "/cache/assets/a.jpg" {
		t.Errorf("GetImagePath = %q, %v", path, ok)
	}
	if _, ok := s.GetImagePath("rec-2"); ok {
		t.Error("unknown id should miss")
	}

	if err := s.DeleteImagePath("rec-1"); err != nil {
		t.Fatalf("DeleteImagePath: %v", err)
	}
	if _, ok := s.GetImagePath("rec-1"); ok {
		t.Error("deleted id should miss")
	}
}

func TestServerPartitioning(t *testing.T) {
	if hashServerURL("http://a.example.com") != hashServerURL("HTTP://A.example.com/") {
		t.Error("equivalent server URLs should share a partition")
	}

	dir := t.TempDir()
	a, err := NewCacheStore(dir, "http://a.example.com")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	b, err := NewCacheStore(dir, "http://b.example.com")
	if err != nil {
		t.Fatalf("other server: %v", err)
	}
	defer b.Close()

	if a.Dir() == b.Dir() {
		t.Error("different servers should not share a directory")
	}
	if b.AssetDir() != filepath.Join(b.Dir(), "assets") {
		t.Errorf("AssetDir = %q", b.AssetDir())
	}
}

func TestPlacemarks(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	want := []domain.Placemark{{Name: "Cafe Deadend", Coordinate: domain.Coordinate{Latitude: 22.28, Longitude: 114.15}}}
	if err := s.SavePlacemarks("72 po hing fong", want); err != nil {
		t.Fatal(err)
	}
	got, ok := s.GetPlacemarks("72 po hing fong")
	if !ok || len(got) != 1 || got[0] != want[0] {
		t.Errorf("GetPlacemarks = %+v, %v", got, ok)
	}

	// Negative results are stored as an empty list
	if err := s.SavePlacemarks("nowhere", nil); err != nil {
		t.Fatal(err)
	}
	got, ok = s.GetPlacemarks("nowhere")
	if !ok || len(got) != 0 {
		t.Errorf("negative entry = %+v, %v", got, ok)
	}
}

func TestFeedSnapshot(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	if _, ok := s.GetFeed(); ok {
		t.Fatal("empty store should have no feed")
	}

	snap := domain.FeedSnapshot{
		Restaurants: []domain.CloudRestaurant{{ID: "a", Name: "Homei"}, {ID: "b", Name: "Teakha"}},
		Cursor:      "next",
	}
	if err := s.SaveFeed(snap); err != nil {
		t.Fatal(err)
	}
	got, ok := s.GetFeed()
	if !ok || len(got.Restaurants) != 2 || got.Cursor != "next" || got.SavedAt == 0 {
		t.Errorf("GetFeed = %+v, %v", got, ok)
	}
}

func TestInvalidate(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	s.SaveImagePath("rec-1", "/a.jpg")
	s.SavePlacemarks("addr", []domain.Placemark{{Name: "x"}})
	s.InvalidateImages()

	if _, ok := s.GetImagePath("rec-1"); ok {
		t.Error("images should be cleared")
	}
	if _, ok := s.GetPlacemarks("addr"); !ok {
		t.Error("geocode entries should survive InvalidateImages")
	}

	s.InvalidateAll()
	if _, ok := s.GetPlacemarks("addr"); ok {
		t.Error("InvalidateAll should clear geocode entries")
	}
	s.Close()

	// Cleared on disk too
	s = openTestStore(t, dir)
	defer s.Close()
	if _, ok := s.GetPlacemarks("addr"); ok {
		t.Error("cleared entries came back after reopen")
	}
}

func TestClearPhotos(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	defer s.Close()

	if err := os.MkdirAll(s.AssetDir(), 0755); err != nil {
		t.Fatal(err)
	}
	photo := filepath.Join(s.AssetDir(), "teakha.jpg")
	if err := os.WriteFile(photo, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	s.SaveImagePath("rec-1", photo)
	s.SavePlacemarks("Central", []domain.Placemark{{Name: "Central"}})

	if err := s.ClearPhotos(); err != nil {
		t.Fatalf("ClearPhotos: %v", err)
	}
	if _, ok := s.GetImagePath("rec-1"); ok {
		t.Error("image path should be forgotten")
	}
	if _, err := os.Stat(photo); !os.IsNotExist(err) {
		t.Errorf("photo file still present: %v", err)
	}
	if _, ok := s.GetPlacemarks("Central"); !ok {
		t.Error("places should survive ClearPhotos")
	}
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := NewCacheStore("", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveImagePath("rec", "/x.jpg"); err != nil {
		t.Fatal(err)
	}
	if path, ok := s.GetImagePath("rec"); !ok || path != "/x.jpg" {
		t.Errorf("GetImagePath = %q, %v", path, ok)
	}
	if s.Dir() != "" {
		t.Errorf("Dir = %q, want empty", s.Dir())
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
