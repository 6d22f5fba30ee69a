package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type SortBy struct {
	Column string
	Desc   bool
}

// WithQuerySortBy validates a user supplied sort column against an allow list.
// Unknown columns produce an empty SortBy which sorts nothing.
func WithQuerySortBy(column, order string, allowed map[string]bool) SortBy {
	column = strings.ToLower(strings.TrimSpace(column))
	if column == "" || !allowed[column] {
		return SortBy{}
	}
	return SortBy{
		Column: column,
		Desc:   strings.EqualFold(strings.TrimSpace(order), "desc"),
	}
}

func WithSortBy(sorts ...SortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		for _, s := range sorts {
			if s.Column == "" {
				continue
			}
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			db = db.Order(fmt.Sprintf("%s %s", s.Column, dir))
		}
		return db
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	})
}
