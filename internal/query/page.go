package query

import (
	"math"
	"net/url"
	"strconv"

	"github.com/nikhilbhutani/staffdesk/internal/apperr"
)

const (
	DefaultLimit = 200
	MaxLimit     = 1000
)

type Page struct {
	Number int
	Limit  int
}

// ParsePage reads page and limit from the query string. Limits above
// MaxLimit are clamped.
func ParsePage(v url.Values, defaultLimit int) (Page, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	p := Page{Number: 1, Limit: defaultLimit}

	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperr.ErrInvalidInput.WithDetail("page")
		}
		p.Number = n
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperr.ErrInvalidInput.WithDetail("limit")
		}
		p.Limit = min(n, MaxLimit)
	}
	return p, nil
}

func (p Page) Skip() int {
	return (p.Number - 1) * p.Limit
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	ResultCount int `json:"resultCount"`
}

func NewPagination(p Page, count int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(count) / float64(p.Limit)))
	}
	return Pagination{CurrentPage: p.Number, TotalPages: pages, ResultCount: count}
}
