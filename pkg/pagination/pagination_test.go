package pagination_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/estimator/pkg/pagination"
	"github.com/JaimeStill/estimator/pkg/query"
)

var cfg = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_DEFAULT_PAGE_SIZE", "30")
	t.Setenv("TEST_MAX_PAGE_SIZE", "not-a-number")

	c := pagination.Config{}
	err := c.Finalize(&pagination.ConfigEnv{
		DefaultPageSize: "TEST_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "TEST_MAX_PAGE_SIZE",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if c.DefaultPageSize != 30 || c.MaxPageSize != 100 {
		t.Errorf("got default %d max %d, want 30 and 100", c.DefaultPageSize, c.MaxPageSize)
	}

	bad := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := bad.Finalize(nil); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected default > max error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		req      pagination.PageRequest
		page     int
		pageSize int
	}{
		{"zero values", pagination.PageRequest{}, 1, 20},
		{"negative page", pagination.PageRequest{Page: -3, PageSize: 10}, 1, 10},
		{"size capped", pagination.PageRequest{Page: 2, PageSize: 500}, 2, 100},
		{"kept", pagination.PageRequest{Page: 4, PageSize: 25}, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(cfg)
			if tt.req.Page != tt.page || tt.req.PageSize != tt.pageSize {
				t.Errorf("got page %d size %d, want %d and %d", tt.req.Page, tt.req.PageSize, tt.page, tt.pageSize)
			}
		})
	}
}

func TestNormalizeSearch(t *testing.T) {
	blank := "   "
	req := pagination.PageRequest{Search: &blank}
	req.Normalize(cfg)
	if req.Search != nil {
		t.Errorf("blank search kept as %q", *req.Search)
	}

	long := strings.Repeat("بلاط", 100)
	req = pagination.PageRequest{Search: &long}
	req.Normalize(cfg)
	if got := []rune(*req.Search); len(got) != 200 {
		t.Errorf("search truncated to %d runes, want 200", len(got))
	}
	if !strings.HasPrefix(long, *req.Search) {
		t.Error("truncation split a rune")
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		page, size, total int
		start, end        int
	}{
		{1, 10, 25, 0, 10},
		{3, 10, 25, 20, 25},
		{4, 10, 25, 25, 25},
		{1, 10, 0, 0, 0},
	}

	for _, tt := range tests {
		req := pagination.PageRequest{Page: tt.page, PageSize: tt.size}
		start, end := req.Window(tt.total)
		if start != tt.start || end != tt.end {
			t.Errorf("page %d of %d: got [%d,%d), want [%d,%d)", tt.page, tt.total, start, end, tt.start, tt.end)
		}
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values, _ := url.ParseQuery("page=2&page_size=15&search=tile&sort=-updated_at,name")
	req := pagination.PageRequestFromQuery(values, cfg)

	if req.Page != 2 || req.PageSize != 15 {
		t.Errorf("got page %d size %d", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "tile" {
		t.Errorf("search: got %v", req.Search)
	}
	want := []query.SortField{{Field: "updated_at", Descending: true}, {Field: "name"}}
	if len(req.Sort) != 2 || req.Sort[0] != want[0] || req.Sort[1] != want[1] {
		t.Errorf("sort: got %v, want %v", req.Sort, want)
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	var body struct {
		Sort pagination.SortFields `json:"sort"`
	}

	if err := json.Unmarshal([]byte(`{"sort": "-price"}`), &body); err != nil {
		t.Fatalf("string form: %v", err)
	}
	if len(body.Sort) != 1 || !body.Sort[0].Descending || body.Sort[0].Field != "price" {
		t.Errorf("string form: got %v", body.Sort)
	}

	if err := json.Unmarshal([]byte(`{"sort": [{"Field": "name"}]}`), &body); err != nil {
		t.Fatalf("array form: %v", err)
	}
	if len(body.Sort) != 1 || body.Sort[0].Field != "name" {
		t.Errorf("array form: got %v", body.Sort)
	}

	if err := json.Unmarshal([]byte(`{"sort": 7}`), &body); err == nil {
		t.Error("expected error for numeric sort")
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		total, size int
		pages       int
	}{
		{0, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 1},
	}

	for _, tt := range tests {
		r := pagination.NewPageResult[string](nil, tt.total, 1, tt.size)
		if r.TotalPages != tt.pages {
			t.Errorf("total %d size %d: got %d pages, want %d", tt.total, tt.size, r.TotalPages, tt.pages)
		}
		if r.Data == nil {
			t.Error("nil data not replaced")
		}
	}

	encoded, _ := json.Marshal(pagination.NewPageResult[int](nil, 0, 1, 20))
	if !strings.Contains(string(encoded), `"data":[]`) {
		t.Errorf("empty page encoded as %s", encoded)
	}
}
