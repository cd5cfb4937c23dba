package resource

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/depot/internal/database"
)

// Lookup answers whether referenced rows exist. It reads from the writer so
// a row created moments earlier is always visible.
type Lookup struct {
	db *bun.DB
}

// NewLookup wires a Lookup over the primary connection.
func NewLookup(conns *database.Connections) *Lookup {
	return &Lookup{db: conns.Writer}
}

// Exists reports whether the table named by model has a row with id.
func (l *Lookup) Exists(ctx context.Context, model any, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	return l.db.NewSelect().Model(model).Where("?TableAlias.id = ?", id).Exists(ctx)
}
