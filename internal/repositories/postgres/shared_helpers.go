package postgres

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/achievers-lc/learning-center/internal/repositories"
)

// allowedSortColumns whitelists ORDER BY columns per table
var allowedSortColumns = map[string]map[string]bool{
	"courses": {
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"price":      true,
		"status":     true,
	},
	"accounts": {
		"created_at": true,
		"id":         true,
		"email":      true,
		"last_name":  true,
	},
}

// applyPaginationAndSort applies pagination and sorting with SQL injection protection
func applyPaginationAndSort(query *gorm.DB, table, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowedSortColumns[table][sortBy] {
		sortBy = "created_at"
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(fmt.Sprintf("%s.%s %s", table, sortBy, sortOrder))
	return applyPagination(query, limit, offset)
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// likePattern escapes LIKE metacharacters in a free-text search term
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// wrap translates driver errors and adds operation context
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", op, repositories.TranslateError(err))
}
