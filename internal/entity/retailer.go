package entity

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Retailer is reference data for a retail customer. Checklist holds the
// suppliers expected to send orders for it.
type Retailer struct {
	bun.BaseModel `bun:"table:retailers,alias:r"`

	ID        int64       `bun:",pk,autoincrement"`
	OwnerID   int64       `bun:"owner_id,notnull"`
	Owner     *User       `bun:"rel:belongs-to,join:owner_id=id"`
	Code      string      `bun:"code,notnull,type:varchar(4)"`
	Name      string      `bun:"name,notnull,type:varchar(100)"`
	Checklist []*Supplier `bun:"m2m:retailer_checklist,join:Retailer=Supplier"`

	// SupplierIDs is the checklist to persist on the next write.
	SupplierIDs []int64 `bun:"-"`
}

// RetailerSupplier is the checklist join row.
type RetailerSupplier struct {
	bun.BaseModel `bun:"table:retailer_checklist,alias:rs"`

	RetailerID int64     `bun:",pk"`
	Retailer   *Retailer `bun:"rel:belongs-to,join:retailer_id=id"`
	SupplierID int64     `bun:",pk"`
	Supplier   *Supplier `bun:"rel:belongs-to,join:supplier_id=id"`
}

func (r *Retailer) PrimaryKey() int64 { return r.ID }

func (r *Retailer) AssignOwner(userID int64) { r.OwnerID = userID }

func (r *Retailer) OwnedBy() int64 { return r.OwnerID }

func (r *Retailer) String() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Name)
}

// ChecklistIDs returns the identifiers of the loaded checklist suppliers.
func (r *Retailer) ChecklistIDs() []int64 {
	ids := make([]int64, 0, len(r.Checklist))
	for _, s := range r.Checklist {
		if s != nil {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// SyncAssociations replaces the stored checklist with SupplierIDs. It must
// run on the same transaction as the retailer write.
func (r *Retailer) SyncAssociations(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewDelete().
		Model((*RetailerSupplier)(nil)).
		Where("retailer_id = ?", r.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("clear checklist: %w", err)
	}
	if len(r.SupplierIDs) == 0 {
		return nil
	}

	rows := make([]RetailerSupplier, 0, len(r.SupplierIDs))
	for _, id := range r.SupplierIDs {
		rows = append(rows, RetailerSupplier{RetailerID: r.ID, SupplierID: id})
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert checklist: %w", err)
	}
	return nil
}
