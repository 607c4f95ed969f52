package cloudserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mmcdole/foodpin/internal/adapter/cloud"
	"github.com/mmcdole/foodpin/internal/domain"
)

const testToken = "secret"

type fakeAssets struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeAssets) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://assets.test/" + key + "?sig=1", nil
}

func (f *fakeAssets) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (f *fakeAssets) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

func strField(v string) cloud.FieldDTO {
	raw, _ := json.Marshal(v)
	return cloud.FieldDTO{Value: raw, Type: cloud.TypeString}
}

func seed(t *testing.T, repo Repository, recordType string, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := repo.Save(context.Background(), StoredRecord{
			Name:   "rec-" + name,
			Type:   recordType,
			Fields: map[string]cloud.FieldDTO{domain.FieldName: strField(name)},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *MemoryRepository, *fakeAssets) {
	t.Helper()
	repo := NewMemoryRepository()
	assets := &fakeAssets{}
	srv := httptest.NewServer(NewServer(repo, assets, []string{testToken}, nil))
	t.Cleanup(srv.Close)
	return srv, repo, assets
}

func restaurantQuery(limit int, cursor domain.Cursor) domain.QueryOperation {
	return domain.QueryOperation{
		Query:        domain.NewQuery(domain.RecordTypeRestaurant),
		DesiredKeys:  []string{domain.FieldName},
		ResultsLimit: limit,
		Cursor:       cursor,
	}
}

func TestQueryPagesThroughRecords(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	var names []string
	for i := range 120 {
		names = append(names, fmt.Sprintf("Restaurant %03d", i))
	}
	seed(t, repo, domain.RecordTypeRestaurant, names...)
	seed(t, repo, "Review", "ignored", "also ignored")

	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)

	var got []string
	var sizes []int
	cursor := domain.Cursor("")
	for {
		page, err := client.Query(context.Background(), restaurantQuery(0, cursor))
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		sizes = append(sizes, len(page.Records))
		for _, rec := range page.Records {
			got = append(got, rec.String(domain.FieldName))
		}
		if page.Cursor.IsEmpty() {
			break
		}
		cursor = page.Cursor
	}

	if fmt.Sprint(sizes) != "[50 50 20]" {
		t.Errorf("page sizes = %v", sizes)
	}
	if len(got) != 120 || got[0] != "Restaurant 000" || got[119] != "Restaurant 119" {
		t.Errorf("got %d records, first %q", len(got), got[0])
	}
}

func TestQueryExactPageHasNoCursor(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	seed(t, repo, domain.RecordTypeRestaurant, "a", "b", "c")

	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)
	page, err := client.Query(context.Background(), restaurantQuery(3, ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Records) != 3 || !page.Cursor.IsEmpty() {
		t.Errorf("got %d records, cursor %q", len(page.Records), page.Cursor)
	}
}

func TestQueryFilters(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	seed(t, repo, domain.RecordTypeRestaurant, "Cafe Deadend", "Homei", "Cafe Loisl", "cafe lowercase")

	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)

	tests := []struct {
		name   string
		filter domain.Filter
		want   int
	}{
		{"begins with", domain.Filter{FieldName: domain.FieldName, Comparator: domain.ComparatorBeginsWith, Value: "Cafe"}, 2},
		{"equals", domain.Filter{FieldName: domain.FieldName, Comparator: domain.ComparatorEquals, Value: "Homei"}, 1},
		{"missing field", domain.Filter{FieldName: "phone", Comparator: domain.ComparatorEquals, Value: "1"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := restaurantQuery(0, "")
			op.Query.Filters = []domain.Filter{tt.filter}
			page, err := client.Query(context.Background(), op)
			if err != nil {
				t.Fatal(err)
			}
			if len(page.Records) != tt.want {
				t.Errorf("got %d records, want %d", len(page.Records), tt.want)
			}
		})
	}
}

func TestMarkerBoundToQuery(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	seed(t, repo, domain.RecordTypeRestaurant, "a", "b", "c")
	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)

	page, err := client.Query(context.Background(), restaurantQuery(1, ""))
	if err != nil {
		t.Fatal(err)
	}
	if page.Cursor.IsEmpty() {
		t.Fatal("expected a cursor")
	}

	other := restaurantQuery(1, page.Cursor)
	other.Query.Filters = []domain.Filter{{FieldName: domain.FieldName, Comparator: domain.ComparatorBeginsWith, Value: "b"}}
	if _, err := client.Query(context.Background(), other); !errors.Is(err, domain.ErrInvalidCursor) {
		t.Errorf("reused marker err = %v, want ErrInvalidCursor", err)
	}

	if _, err := client.Query(context.Background(), restaurantQuery(1, "not-a-marker!")); !errors.Is(err, domain.ErrInvalidCursor) {
		t.Errorf("garbage marker err = %v, want ErrInvalidCursor", err)
	}

	// The same query continues normally
	next, err := client.Query(context.Background(), restaurantQuery(1, page.Cursor))
	if err != nil {
		t.Fatal(err)
	}
	if len(next.Records) != 1 || next.Records[0].String(domain.FieldName) != "b" {
		t.Errorf("second page = %+v", next.Records)
	}
}

func TestQueryRejectsBadRequests(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"missing type", `{"query":{}}`},
		{"bad comparator", `{"query":{"recordType":"Restaurant","filterBy":[{"fieldName":"name","comparator":"LESS_THAN","fieldValue":{"value":"x"}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+cloud.APIPrefix+"/records/query", testToken, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d", resp.StatusCode)
			}
			var er cloud.ErrorResponse
			json.NewDecoder(resp.Body).Decode(&er)
			resp.Body.Close()
			if er.ServerErrorCode != cloud.CodeBadRequest {
				t.Errorf("code = %q", er.ServerErrorCode)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 50},
		{-5, 1},
		{7, 7},
		{200, 200},
		{500, 200},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLookupOrderAndMissing(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	seed(t, repo, domain.RecordTypeRestaurant, "a", "b")
	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)

	ids := []domain.RecordID{"rec-b", "rec-missing", "rec-a"}
	results, err := client.FetchRecords(context.Background(), ids, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Record == nil || results[0].Record.String(domain.FieldName) != "b" {
		t.Errorf("first = %+v", results[0])
	}
	if !errors.Is(results[1].Err, domain.ErrRecordNotFound) {
		t.Errorf("missing err = %v", results[1].Err)
	}
	if results[2].Record == nil || results[2].ID != "rec-a" {
		t.Errorf("third = %+v", results[2])
	}
}

func TestLookupLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := cloud.LookupRequest{}
	for i := range MaxLookupRecords + 1 {
		req.Records = append(req.Records, cloud.RecordRefDTO{RecordName: fmt.Sprint(i)})
	}
	body, _ := json.Marshal(req)

	resp := post(t, srv.URL+cloud.APIPrefix+"/records/lookup", testToken, string(body))
	defer resp.Body.Close()
	var er cloud.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&er)
	if resp.StatusCode != http.StatusBadRequest || er.ServerErrorCode != cloud.CodeLimitExceeded {
		t.Errorf("status %d, code %q", resp.StatusCode, er.ServerErrorCode)
	}
}

func TestAuthentication(t *testing.T) {
	srv, _, _ := newTestServer(t)

	client := cloud.NewClient(srv.URL, "wrong", t.TempDir(), nil)
	if _, err := client.Query(context.Background(), restaurantQuery(0, "")); !errors.Is(err, domain.ErrAuthFailed) {
		t.Errorf("wrong token err = %v, want ErrAuthFailed", err)
	}

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

// downRepository is a repository whose database cannot be reached
type downRepository struct {
	*MemoryRepository
}

func (downRepository) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	srv := httptest.NewServer(NewServer(downRepository{NewMemoryRepository()}, nil, nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body cloud.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable || body.ServerErrorCode != cloud.CodeServiceUnavail {
		t.Errorf("healthz = %d %+v", resp.StatusCode, body)
	}

	client := cloud.NewClient(srv.URL, "", t.TempDir(), nil)
	if err := client.Health(context.Background()); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("Health err = %v, want ErrServerOffline", err)
	}
}

func TestModifyLifecycle(t *testing.T) {
	srv, _, _ := newTestServer(t)
	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)
	ctx := context.Background()

	saved, err := client.SaveRecords(ctx, []*domain.Record{{
		Type: domain.RecordTypeRestaurant,
		Fields: map[string]any{
			domain.FieldName:  "Homei",
			domain.FieldImage: &domain.Asset{ObjectKey: "restaurants/homei.jpg", DownloadURL: "http://stale", Size: 10},
		},
	}})
	if err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved %d records", len(saved))
	}
	id := saved[0].ID
	if _, err := uuid.Parse(string(id)); err != nil {
		t.Errorf("record name %q is not a UUID", id)
	}

	rec, err := client.FetchRecord(ctx, id, []string{domain.FieldImage})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Fields[domain.FieldName]; ok {
		t.Error("desired keys should exclude name")
	}
	asset := rec.Asset(domain.FieldImage)
	if asset == nil || asset.DownloadURL != "https://assets.test/restaurants/homei.jpg?sig=1" {
		t.Errorf("asset = %+v", asset)
	}

	rec.Fields = map[string]any{domain.FieldName: "Homei Kitchen"}
	if _, err := client.SaveRecords(ctx, []*domain.Record{rec}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	rec, err = client.FetchRecord(ctx, id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.String(domain.FieldName) != "Homei Kitchen" || rec.Asset(domain.FieldImage) != nil {
		t.Errorf("replaced record = %+v", rec.Fields)
	}

	if err := client.DeleteRecord(ctx, id); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := client.DeleteRecord(ctx, id); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestDeleteRemovesAssets(t *testing.T) {
	srv, _, assets := newTestServer(t)
	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)
	ctx := context.Background()

	saved, err := client.SaveRecords(ctx, []*domain.Record{{
		ID:     "rec-teakha",
		Type:   domain.RecordTypeRestaurant,
		Fields: map[string]any{domain.FieldImage: &domain.Asset{ObjectKey: "restaurants/teakha.jpg"}},
	}})
	if err != nil || len(saved) != 1 || saved[0].ID != "rec-teakha" {
		t.Fatalf("save = %+v, %v", saved, err)
	}

	if err := client.DeleteRecord(ctx, "rec-teakha"); err != nil {
		t.Fatal(err)
	}
	if len(assets.removed) != 1 || assets.removed[0] != "restaurants/teakha.jpg" {
		t.Errorf("removed = %v", assets.removed)
	}
}

func TestDeleteKeepsSharedAssets(t *testing.T) {
	srv, _, assets := newTestServer(t)
	client := cloud.NewClient(srv.URL, testToken, t.TempDir(), nil)
	ctx := context.Background()

	shared := func(id domain.RecordID) *domain.Record {
		return &domain.Record{
			ID:     id,
			Type:   domain.RecordTypeRestaurant,
			Fields: map[string]any{domain.FieldImage: &domain.Asset{ObjectKey: "restaurants/abc123.jpg"}},
		}
	}
	if _, err := client.SaveRecords(ctx, []*domain.Record{shared("rec-homei"), shared("rec-teakha")}); err != nil {
		t.Fatal(err)
	}

	if err := client.DeleteRecord(ctx, "rec-homei"); err != nil {
		t.Fatal(err)
	}
	if len(assets.removed) != 0 {
		t.Fatalf("removed = %v while rec-teakha still uses the photo", assets.removed)
	}

	if err := client.DeleteRecord(ctx, "rec-teakha"); err != nil {
		t.Fatal(err)
	}
	if len(assets.removed) != 1 || assets.removed[0] != "restaurants/abc123.jpg" {
		t.Errorf("removed = %v after the last reference went", assets.removed)
	}
}

func TestModifyRecordErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := `{"operations":[
		{"operationType":"forceReplace","record":{"recordType":"Restaurant"}},
		{"operationType":"create","record":{"recordName":"x"}},
		{"operationType":"explode","record":{"recordName":"y","recordType":"Restaurant"}},
		{"operationType":"create","record":{"recordName":"z","recordType":"Restaurant","fields":{"n":{"value":1,"type":"NUMBER"}}}}
	]}`
	resp := post(t, srv.URL+cloud.APIPrefix+"/records/modify", testToken, body)
	defer resp.Body.Close()

	var mr cloud.ModifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		t.Fatal(err)
	}
	if len(mr.Records) != 4 {
		t.Fatalf("got %d records", len(mr.Records))
	}
	for i, rec := range mr.Records {
		if rec.ServerErrorCode != cloud.CodeBadRequest {
			t.Errorf("op %d code = %q", i, rec.ServerErrorCode)
		}
	}
}

func TestMemoryRepositoryKeepsSeqOnReplace(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, _ := repo.Save(ctx, StoredRecord{Name: "a", Type: "T"})
	repo.Save(ctx, StoredRecord{Name: "b", Type: "T"})
	again, _ := repo.Save(ctx, StoredRecord{Name: "a", Type: "T", Fields: map[string]cloud.FieldDTO{"name": strField("new")}})

	if again.Seq != first.Seq || !again.Created.Equal(first.Created) {
		t.Errorf("replace changed seq or created: %+v vs %+v", again, first)
	}
	recs, _ := repo.Query(ctx, domain.NewQuery("T"), 0, 10)
	if len(recs) != 2 || recs[0].Name != "a" {
		t.Errorf("query order = %+v", recs)
	}
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}
