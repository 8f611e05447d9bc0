package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ListQuery holds pagination and filter parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Offset returns the row offset of the requested page
func (q *ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// paginate applies sorting and pagination; sortable whitelists client sort keys
func paginate(db *gorm.DB, query *ListQuery, sortable map[string]string, defaultOrder string) *gorm.DB {
	order := defaultOrder
	if col, ok := sortable[query.SortBy]; ok {
		order = col
		if query.SortDir == "desc" {
			order += " DESC"
		}
	}
	db = db.Order(order)

	if query.PerPage > 0 {
		db = db.Offset(query.Offset()).Limit(query.PerPage)
	}
	return db
}

func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraintName
	}
	return false
}
