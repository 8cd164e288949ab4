// Package repositories provides PostgreSQL-backed implementations of all
// domain repository interfaces for the assessment continuity platform.
package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier abstracts pgxpool.Pool and pgx.Tx so that repository methods run
// identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 500
)

// normalizePage clamps pagination parameters to sane bounds.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// orderClause builds a safe ORDER BY clause.  Only columns present in the
// allow-list are accepted; anything else falls back to the default column.
func orderClause(sortBy, sortOrder, defaultColumn string, allowed map[string]string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = defaultColumn
	}
	dir := "ASC"
	if sortOrder == "desc" || sortOrder == "DESC" {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, dir)
}
