// AngelaMos | 2026
// pagination.go

package core

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams is the page/limit/search triple every list endpoint accepts.
type PageParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePageParams reads page, limit (or page_size) and search from the
// query string. Malformed numbers fall back to defaults.
func ParsePageParams(r *http.Request) PageParams {
	q := r.URL.Query()

	size := q.Get("limit")
	if size == "" {
		size = q.Get("page_size")
	}

	p := PageParams{
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(size, DefaultPageSize),
		Search:   q.Get("search"),
	}
	p.Normalize()
	return p
}

// LikePattern wraps s for a case-insensitive substring ILIKE match.
func LikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return "%" + s + "%"
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
