// Package entity defines the relational rows persisted through bun.
package entity

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// DateLayout is the calendar date format used for date-only columns.
const DateLayout = "2006-01-02"

// Owned is satisfied by pointers to every resource row attributed to a user.
type Owned[M any] interface {
	*M
	fmt.Stringer
	PrimaryKey() int64
	OwnedBy() int64
	AssignOwner(userID int64)
}

// AssociationSyncer is implemented by rows that own join-table rows written
// alongside them.
type AssociationSyncer interface {
	SyncAssociations(ctx context.Context, db bun.IDB) error
}

// RegisterModels registers join models that bun needs before any m2m query.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*RetailerSupplier)(nil))
}
