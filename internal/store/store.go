// Package store wraps the Neo4j driver behind a narrow runner interface so
// repositories emit Cypher statements without touching driver types.
package store

import "context"

// Query is one Cypher statement with its parameters.
type Query struct {
	Statement string
	Params    map[string]any
}

// Record is one result row. Node values are flattened to their property
// maps, so repositories only ever see maps, lists and scalars.
type Record map[string]any

type Runner interface {
	// Run executes a single statement in an auto-commit transaction.
	Run(ctx context.Context, query Query) ([]Record, error)

	// RunTransaction executes the statements in order inside one
	// write transaction. Either all of them commit or none do.
	RunTransaction(ctx context.Context, queries []Query) error
}
