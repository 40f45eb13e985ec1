package api

import (
	"net/http"

	"github.com/oapi-codegen/runtime"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Page struct {
	Page     int
	PageSize int
}

func (p Page) Limit() int32  { return int32(p.PageSize) }
func (p Page) Offset() int32 { return int32((p.Page - 1) * p.PageSize) }

type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

type ListResponse[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// normalizePage clamps page/page_size query params.
// page defaults to 1, page_size to 20 and is capped at 100.
func normalizePage(page, pageSize *int) Page {
	p := Page{Page: 1, PageSize: defaultPageSize}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if pageSize != nil {
		p.PageSize = *pageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	if p.PageSize < 1 {
		p.PageSize = 1
	}
	return p
}

func parsePage(w http.ResponseWriter, r *http.Request) (Page, bool) {
	var page, pageSize *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "page", Message: "must be an integer"}}).Write(w)
		return Page{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_size", q, &pageSize); err != nil {
		ValidationErr("Invalid query parameter", []ErrorDetail{{Field: "page_size", Message: "must be an integer"}}).Write(w)
		return Page{}, false
	}
	return normalizePage(page, pageSize), true
}

func newListResponse[T any](items []T, p Page, total int64) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	pages := int64(0)
	if total > 0 {
		pages = (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	}
	return ListResponse[T]{
		Data: items,
		Meta: PageMeta{Page: p.Page, PageSize: p.PageSize, Total: total, TotalPages: pages},
	}
}

// mapList converts db rows to response views.
func mapList[R any, V any](rows []R, fn func(R) V) []V {
	out := make([]V, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}
