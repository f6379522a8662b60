//go:build !cgo
// +build !cgo

package database

import "errors"

// NewDuckDB always fails when built without CGO.
func NewDuckDB(string) (Querier, error) {
	return nil, errors.New("duckdb requires CGO; build with CGO_ENABLED=1")
}
