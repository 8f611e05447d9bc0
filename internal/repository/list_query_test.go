package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestListQuery_Offset(t *testing.T) {
	tests := []struct {
		page, perPage int
		want          int
	}{
		{1, 20, 0},
		{3, 20, 40},
		{0, 20, 0},
		{-2, 50, 0},
	}

	for _, tt := range tests {
		q := &ListQuery{Page: tt.page, PerPage: tt.perPage}
		assert.Equal(t, tt.want, q.Offset(), "page %d", tt.page)
	}
}

func TestNewListQuery(t *testing.T) {
	q := NewListQuery()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PerPage)
	assert.NotNil(t, q.Filters)
}

func TestIsDuplicateKeyError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "idx_receipts_receipt_number"}

	assert.True(t, isDuplicateKeyError(fmt.Errorf("insert receipt: %w", dup), "idx_receipts_receipt_number"))
	assert.False(t, isDuplicateKeyError(dup, "other_constraint"))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isDuplicateKeyError(fmt.Errorf("boom"), ""))
}
