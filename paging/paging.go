// Package paging filters and paginates record lists already fetched from
// an upstream service.
package paging

import (
	"strconv"
	"strings"
)

// Record is an opaque upstream entity.
type Record = map[string]any

const (
	// DefaultPageSize is used when the requested size is not positive.
	DefaultPageSize = 10

	// MaxPageSize caps the requested size.
	MaxPageSize = 100
)

// Page is one page of records.
type Page struct {
	Items    []Record `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// Filter keeps records where any scalar field contains query,
// ignoring case. An empty query keeps everything.
func Filter(records []Record, query string) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}
	result := make([]Record, 0, len(records))
	for _, r := range records {
		if matches(r, query) {
			result = append(result, r)
		}
	}
	return result
}

func matches(r Record, query string) bool {
	for _, v := range r {
		text, scalar := scalarText(v)
		if !scalar {
			// nested objects and arrays are not searched
			continue
		}
		if strings.Contains(strings.ToLower(text), query) {
			return true
		}
	}
	return false
}

// scalarText renders a JSON-decoded scalar. Numbers are written in plain
// decimal so large values are found by their digits.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// Paginate returns the 1-based page of records.
// Pages before the first are clamped to the first one; pages past the end are empty.
func Paginate(records []Record, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	p := Page{
		Items:    []Record{},
		Total:    len(records),
		Page:     page,
		PageSize: size,
	}

	start := (page - 1) * size
	if start >= len(records) {
		return p
	}
	end := min(start+size, len(records))
	p.Items = records[start:end]

	return p
}
