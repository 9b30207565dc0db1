package pagination

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/estimator/pkg/query"
)

// maxSearchLength caps the search term, in runes, taken from a request.
const maxSearchLength = 200

// SortFields decodes either "name,-updated_at" or a JSON array of SortField.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = query.ParseSortFields(str)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest asks for one 1-based page, optionally narrowed by a search
// term and ordered by sort fields.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps the page to at least 1 and the size into
// [1, cfg.MaxPageSize], substituting the default size when unset. A blank
// search is dropped.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)

	if r.Search != nil {
		s := strings.TrimSpace(*r.Search)
		if runes := []rune(s); len(runes) > maxSearchLength {
			s = string(runes[:maxSearchLength])
		}
		if s == "" {
			r.Search = nil
		} else {
			r.Search = &s
		}
	}
}

// Offset is the number of rows preceding the page.
func (r *PageRequest) Offset() int {
	return (max(r.Page, 1) - 1) * r.PageSize
}

// Window returns the [start, end) bounds of the page within total items,
// for stores that paginate in memory.
func (r *PageRequest) Window(total int) (start, end int) {
	start = min(r.Offset(), total)
	end = min(start+r.PageSize, total)
	return start, end
}

// PageRequestFromQuery reads page, page_size, search and sort from a query
// string and normalizes the result.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("page_size"))

	req := PageRequest{
		Page:     page,
		PageSize: size,
		Sort:     query.ParseSortFields(values.Get("sort")),
	}
	if s := values.Get("search"); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// PageResult is one page of T plus the totals a client needs to page on.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult derives TotalPages, which is at least 1, and replaces nil
// data with an empty slice so it encodes as [].
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	if data == nil {
		data = []T{}
	}
	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}
}
