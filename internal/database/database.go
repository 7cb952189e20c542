// Package database exposes the persistence layer as one generic repository
// contract shared by every entity type. An entity only has to embed
// model.Base and declare its storm indexes to participate.
package database

import (
	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/mdouchement/savepoint/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsConflict returns true if err is an identifier or unique index collision.
		IsConflict(err error) bool
		// WithTransaction executes fn against a single write transaction.
		// It commits when fn returns nil and rolls back every mutation
		// otherwise. Nested calls reuse the surrounding transaction.
		WithTransaction(fn func(tx Client) error) error

		node() storm.Node
		write(fn func(node storm.Node) error) error
	}

	// A Record constrains an entity pointer to the model contract so the
	// repository stays statically checked for every instantiated type.
	Record[T any] interface {
		*T
		model.Model
	}

	// A Repository is the persistence contract instantiated once per entity
	// type. All operations run against the given Client, which may be a
	// transaction handle.
	Repository[T any, R Record[T]] struct {
		c Client
	}
)

// NewRepository returns the repository of the entity type T bound to c.
func NewRepository[T any, R Record[T]](c Client) *Repository[T, R] {
	return &Repository[T, R]{c: c}
}

// Matchers below are re-exported so callers don't have to import storm
// internals next to the repository.

// Eq returns a matcher for field == value.
func Eq(field string, value any) q.Matcher {
	return q.Eq(field, value)
}

// Gt returns a matcher for field > value.
func Gt(field string, value any) q.Matcher {
	return q.Gt(field, value)
}

// Not negates the given matchers.
func Not(matchers ...q.Matcher) q.Matcher {
	return q.Not(matchers...)
}
