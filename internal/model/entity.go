// Package model defines the entity attribute bundles consumed by the i-Score
// engine and the score records it produces.
package model

// EntityType identifies the kind of entity a score belongs to.
type EntityType string

const (
	EntityCountry  EntityType = "country"
	EntitySupplier EntityType = "supplier"
	EntityRoute    EntityType = "trade_route"
	EntityProduct  EntityType = "product"
	EntityCompany  EntityType = "company"
)

// Ptr returns a pointer to v. Optional attributes are pointers so that an
// absent value can be told apart from zero.
func Ptr[T any](v T) *T { return &v }
