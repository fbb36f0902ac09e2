// Package utils holds small helpers shared by handlers and services: query
// parsing, page windows, phone numbers and business-day arithmetic.
package utils

import "strconv"

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 20

// AtoiDefault parses s as an int, returning def when s is empty or malformed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageWindow normalizes a 1-based page request and returns the row offset.
// page < 1 becomes 1; pageSize <= 0 becomes DefaultPageSize.
func PageWindow(page, pageSize int) (p, size, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
