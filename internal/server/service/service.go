// Package service holds the business operations that span several entities
// or must run atomically. Plain per-entity CRUD stays in the handlers.
package service

type (
	// A Render is an arbitrary payload serializable in JSON by the API.
	Render interface{}

	// M is a an arbitrary map.
	M map[string]interface{}
)
