package resource

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is the normalized pagination window of a list request.
type Page struct {
	Page  int
	Limit int
}

// ParsePage normalizes page/limit query parameters. Non-numeric or
// non-positive values fall back to the defaults instead of erroring;
// limit is hard-capped at MaxLimit whatever the caller asked for.
func ParsePage(values url.Values) Page {
	page := atoiOr(values.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := atoiOr(values.Get("limit"), DefaultLimit)
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() uint64 {
	return uint64(p.Page-1) * uint64(p.Limit)
}

// Pages derives the total page count: ceil(total / limit).
func (p Page) Pages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
