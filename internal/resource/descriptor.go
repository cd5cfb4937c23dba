// Package resource describes each owned resource type exposed by the API.
package resource

import (
	"fmt"

	"github.com/Additional-Code/depot/internal/access"
)

// Kind names a resource type; it doubles as the collection path segment.
type Kind string

const (
	Orders       Kind = "orders"
	Retailers    Kind = "retailers"
	Suppliers    Kind = "suppliers"
	Concessions  Kind = "concessions"
	Memos        Kind = "memos"
	ManualOrders Kind = "manual"
)

// Descriptor holds everything the generic layers need to serve a Kind.
type Descriptor struct {
	Kind   Kind
	Policy access.Policy
	// Patch reports whether partial updates are accepted.
	Patch bool
	// Relations are loaded with every read.
	Relations []string
	// OrderBy expressions define the default list ordering.
	OrderBy []string
	// Immutable columns are never written by updates.
	Immutable []string
}

// Path returns the collection path, e.g. "/orders/".
func (d Descriptor) Path() string {
	return "/" + string(d.Kind) + "/"
}

var (
	ownerOnly       = []string{"Owner"}
	insertionOrder  = []string{"?TableAlias.id ASC"}
	ownerImmutable  = []string{"owner_id"}
	orderImmutables = []string{"owner_id", "received"}
)

var descriptors = []Descriptor{
	{
		Kind:      Orders,
		Policy:    access.AdminOnly,
		Relations: ownerOnly,
		OrderBy:   []string{"?TableAlias.received ASC", "?TableAlias.id ASC"},
		Immutable: orderImmutables,
	},
	{
		Kind:      Retailers,
		Policy:    access.Authenticated,
		Patch:     true,
		Relations: []string{"Owner", "Checklist"},
		OrderBy:   insertionOrder,
		Immutable: ownerImmutable,
	},
	{
		Kind:      Suppliers,
		Policy:    access.Authenticated,
		Relations: ownerOnly,
		OrderBy:   insertionOrder,
		Immutable: ownerImmutable,
	},
	{
		Kind:      Concessions,
		Policy:    access.AuthenticatedOrReadOnly,
		Patch:     true,
		Relations: ownerOnly,
		OrderBy:   insertionOrder,
		Immutable: ownerImmutable,
	},
	{
		Kind:      Memos,
		Policy:    access.AuthenticatedOrReadOnly,
		Patch:     true,
		Relations: ownerOnly,
		OrderBy:   insertionOrder,
		Immutable: ownerImmutable,
	},
	{
		Kind:      ManualOrders,
		Policy:    access.AuthenticatedOrReadOnly,
		Patch:     true,
		Relations: ownerOnly,
		OrderBy:   insertionOrder,
		Immutable: ownerImmutable,
	},
}

// All returns every descriptor in directory order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup finds the descriptor for k.
func Lookup(k Kind) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Kind == k {
			return d, true
		}
	}
	return Descriptor{}, false
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(k Kind) Descriptor {
	d, ok := Lookup(k)
	if !ok {
		panic(fmt.Sprintf("resource: unknown kind %q", k))
	}
	return d
}
