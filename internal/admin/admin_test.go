package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/foodpin/internal/domain"
)

func TestParseCSV(t *testing.T) {
	input := `Name,Type,Location,Phone,image_path
Cafe Deadend, Coffee & Tea Shop, "G/F, 72 Po Hing Fong, Sheung Wan, Hong Kong",232-923423,photos/cafedeadend.jpg
Homei,Cafe,"Shop B, G/F, 22-24A Tai Ping San Street SOHO, Sheung Wan, Hong Kong",348-233423,
Teakha,Tea House,Sheung Wan,354-243523,/abs/teakha.jpg
`
	rows, err := ParseCSV(strings.NewReader(input), "/data")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}

	if rows[0].Name != "Cafe Deadend" || rows[0].Type != "Coffee & Tea Shop" || rows[0].Line != 2 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[0].Location != "G/F, 72 Po Hing Fong, Sheung Wan, Hong Kong" {
		t.Errorf("quoted location = %q", rows[0].Location)
	}
	if rows[0].ImagePath != filepath.Join("/data", "photos/cafedeadend.jpg") {
		t.Errorf("relative image path = %q", rows[0].ImagePath)
	}
	if rows[1].ImagePath != "" {
		t.Errorf("empty image path = %q", rows[1].ImagePath)
	}
	if rows[2].ImagePath != "/abs/teakha.jpg" {
		t.Errorf("absolute image path = %q", rows[2].ImagePath)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "name,type,location\nA,B,C\n"},
		{"missing name", "name,type,location,phone\n,B,C,D\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tt.input), ""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

type fakeWriter struct {
	saved []*domain.Record
	fail  string // name that fails to save
}

func (f *fakeWriter) SaveRecords(ctx context.Context, records []*domain.Record) ([]*domain.Record, error) {
	for _, r := range records {
		if r.String(domain.FieldName) == f.fail {
			return nil, errors.New("boom")
		}
	}
	f.saved = append(f.saved, records...)
	return records, nil
}

type fakeAssets struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeAssets) PresignGet(ctx context.Context, key string) (string, error) { return key, nil }
func (f *fakeAssets) Remove(ctx context.Context, key string) error              { return nil }

func (f *fakeAssets) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "homei.PNG")
	if err := os.WriteFile(img, []byte("png bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	writer := &fakeWriter{fail: "Broken"}
	assets := &fakeAssets{objects: map[string][]byte{}, types: map[string]string{}}
	im := NewImporter(writer, assets, nil)

	rows := []Row{
		{Line: 2, Name: "Homei", Type: "Cafe", ImagePath: img},
		{Line: 3, Name: "Broken"},
		{Line: 4, Name: "Missing image", ImagePath: filepath.Join(dir, "nope.jpg")},
		{Line: 5, Name: "Teakha", Location: "Sheung Wan"},
	}

	var progress []int
	res, err := im.Import(context.Background(), rows, func(done, total int) {
		if total != 4 {
			t.Errorf("total = %d", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Saved != 2 || res.Failed != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(progress) != 4 || progress[3] != 4 {
		t.Errorf("progress = %v", progress)
	}

	if len(writer.saved) != 2 {
		t.Fatalf("saved %d records", len(writer.saved))
	}
	homei := writer.saved[0]
	if homei.Type != domain.RecordTypeRestaurant || homei.ID != "" {
		t.Errorf("record = %+v", homei)
	}
	asset := homei.Asset(domain.FieldImage)
	if asset == nil || asset.Size != 9 || len(asset.Checksum) != 64 {
		t.Fatalf("asset = %+v", asset)
	}
	if asset.ObjectKey != "restaurants/"+asset.Checksum+".png" {
		t.Errorf("object key = %q", asset.ObjectKey)
	}
	if !bytes.Equal(assets.objects[asset.ObjectKey], []byte("png bytes")) {
		t.Error("uploaded bytes differ")
	}
	if assets.types[asset.ObjectKey] != "image/png" {
		t.Errorf("content type = %q", assets.types[asset.ObjectKey])
	}
	if writer.saved[1].Asset(domain.FieldImage) != nil {
		t.Error("row without image should have no asset")
	}
}

func TestImportWithoutAssetStore(t *testing.T) {
	writer := &fakeWriter{}
	im := NewImporter(writer, nil, nil)
	res, _ := im.Import(context.Background(), []Row{{Name: "A", ImagePath: "/x.jpg"}, {Name: "B"}}, nil)
	if res.Saved != 1 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
}

type fakeQuerier struct {
	pages [][]*domain.Record
	op    domain.QueryOperation
}

func (f *fakeQuerier) QueryAll(ctx context.Context, op domain.QueryOperation, onPage func(domain.QueryPage, int)) ([]*domain.Record, error) {
	f.op = op
	var all []*domain.Record
	for _, p := range f.pages {
		all = append(all, p...)
		onPage(domain.QueryPage{Records: p}, len(all))
	}
	return all, nil
}

func TestList(t *testing.T) {
	q := &fakeQuerier{pages: [][]*domain.Record{
		{
			{ID: "a", Fields: map[string]any{"name": "Homei", "image": &domain.Asset{Size: 2048}}},
			{ID: "b", Fields: map[string]any{"name": "Teakha"}},
		},
		{
			{ID: "c", Fields: map[string]any{"name": "Po's Atelier"}},
		},
	}}

	var pages [][]Listing
	n, err := List(context.Background(), q, 50, func(page []Listing) { pages = append(pages, page) })
	if err != nil || n != 3 {
		t.Fatalf("List = %d, %v", n, err)
	}
	if q.op.ResultsLimit != 50 || q.op.Query.RecordType != domain.RecordTypeRestaurant {
		t.Errorf("op = %+v", q.op)
	}
	if len(pages) != 2 || len(pages[0]) != 2 {
		t.Fatalf("pages = %+v", pages)
	}
	if pages[0][0].ImageSize != 2048 || pages[0][1].ImageSize != 0 {
		t.Errorf("sizes = %+v", pages[0])
	}
	if s := pages[0][0].String(); !strings.Contains(s, "2.0 kB") || !strings.Contains(s, "Homei") {
		t.Errorf("line = %q", s)
	}
	if s := pages[0][1].String(); !strings.HasSuffix(s, "-") {
		t.Errorf("line without image = %q", s)
	}
}

type fakeFetcher struct {
	records map[domain.RecordID]*domain.Record
	keys    []string
}

func (f *fakeFetcher) FetchRecord(ctx context.Context, id domain.RecordID, desiredKeys []string) (*domain.Record, error) {
	f.keys = desiredKeys
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}

func TestShow(t *testing.T) {
	f := &fakeFetcher{records: map[domain.RecordID]*domain.Record{
		"a": {ID: "a", Type: domain.RecordTypeRestaurant, Fields: map[string]any{
			"name": "Homei", "location": "Sheung Wan", "image": &domain.Asset{Size: 2048},
		}},
		"u": {ID: "u", Type: "User"},
	}}

	l, err := Show(context.Background(), f, "a")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if l.Name != "Homei" || l.Location != "Sheung Wan" || l.ImageSize != 2048 {
		t.Errorf("listing = %+v", l)
	}
	if len(f.keys) != 3 {
		t.Errorf("desired keys = %v", f.keys)
	}

	if _, err := Show(context.Background(), f, "missing"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if _, err := Show(context.Background(), f, "u"); err == nil {
		t.Error("non-restaurant record should fail")
	}
}
