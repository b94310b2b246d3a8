package util

import (
	"fmt"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*size far from int overflow.
	MaxPage = 1_000_000
)

// Calculate turns a 1-based page and a page size into an offset and limit.
// Out of range sizes fall back to DefaultPageSize and pages are clamped to
// [1, MaxPage].
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// ParsePage reads optional page and size query values. ok is false when
// both are empty, meaning the caller asked for no pagination.
func ParsePage(pageStr, sizeStr string) (from, limit int, ok bool, err error) {
	if pageStr == "" && sizeStr == "" {
		return 0, 0, false, nil
	}
	page, size := 1, DefaultPageSize
	if pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil {
			return 0, 0, false, fmt.Errorf("invalid page %q", pageStr)
		}
		if page > MaxPage {
			return 0, 0, false, fmt.Errorf("page must be at most %d", MaxPage)
		}
	}
	if sizeStr != "" {
		if size, err = strconv.Atoi(sizeStr); err != nil {
			return 0, 0, false, fmt.Errorf("invalid size %q", sizeStr)
		}
	}
	from, limit = Calculate(page, size)
	return from, limit, true, nil
}

// ParseID parses a positive numeric path id.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}
