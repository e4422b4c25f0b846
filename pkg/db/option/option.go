// Package option provides reusable query options for the generic repository.
package option

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/trashmobeco/trashmob/pkg/db/pagination"
	"github.com/trashmobeco/trashmob/pkg/repository"
)

// QuerySortBy restricts sortable columns to an allow-list.
type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

// WithSortBy orders results by an allow-listed column, defaulting to created_at.
func WithSortBy(sort QuerySortBy) repository.Option {
	return func(query *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" || (sort.Allow != nil && !sort.Allow[field]) {
			field = "created_at"
		}
		direction := "ASC"
		if sort.Desc {
			direction = "DESC"
		}
		return query.Order(field + " " + direction)
	}
}

// WithLimit caps the number of returned rows.
func WithLimit(limit int) repository.Option {
	return func(query *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return query
		}
		return query.Limit(limit)
	}
}

// ApplyPagination applies cursor pagination, fetching one extra row so the
// caller can detect whether more pages exist.
func ApplyPagination(page pagination.Pagination) repository.Option {
	return func(query *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = pagination.DefaultPageSize
		}
		if token := strings.TrimSpace(page.PageToken); token != "" {
			if cursor, err := pagination.DecodeCursor(token); err == nil {
				createdAt, terr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
				id, ierr := strconv.ParseInt(cursor.ID, 10, 64)
				if terr == nil && ierr == nil {
					query = query.Where(
						"created_at > ? OR (created_at = ? AND id > ?)",
						createdAt, createdAt, id,
					)
				}
			}
		}
		return query.Order("created_at ASC, id ASC").Limit(size + 1)
	}
}
