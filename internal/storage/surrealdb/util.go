package surrealdb

import (
	"context"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordID builds a SurrealDB record id for a table and string key.
func recordID(table, id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(table, id)
}

// firstResult unwraps the first row of the first statement of a query, or nil.
func firstResult[T any](results *[]surrealdb.QueryResult[[]T]) *T {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil
	}
	return &(*results)[0].Result[0]
}

// allResults unwraps every row of the first statement of a query.
func allResults[T any](results *[]surrealdb.QueryResult[[]T]) []*T {
	var out []*T
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			out = append(out, &(*results)[0].Result[i])
		}
	}
	return out
}

// queryOne runs a query expected to yield at most one row.
func queryOne[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) (*T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	return firstResult(results), nil
}

// queryAll runs a query and returns every row.
func queryAll[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]*T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	return allResults(results), nil
}

// queryCount runs a count query shaped as "SELECT count() AS cnt ... GROUP ALL".
func queryCount(ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) (int, error) {
	type countResult struct {
		Cnt int `json:"cnt"`
	}
	row, err := queryOne[countResult](ctx, db, sql, vars)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row.Cnt, nil
}
