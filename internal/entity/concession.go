package entity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Concession records a retailer-approved exception for stock outside the
// agreed shelf-life-at-receipt window.
type Concession struct {
	bun.BaseModel `bun:"table:concessions,alias:c"`

	ID          int64      `bun:",pk,autoincrement"`
	OwnerID     int64      `bun:"owner_id,notnull"`
	Owner       *User      `bun:"rel:belongs-to,join:owner_id=id"`
	RetailerID  int64      `bun:"retailer_id,notnull"`
	SupplierID  int64      `bun:"supplier_id,notnull"`
	Product     string     `bun:"product,notnull,type:varchar(20)"`
	Description string     `bun:"description,notnull,type:varchar(100)"`
	BestBefore  *time.Time `bun:"best_before,type:date"`
	StartDate   *time.Time `bun:"start_date,type:date"`
	EndDate     *time.Time `bun:"end_date,type:date"`
}

func (c *Concession) PrimaryKey() int64 { return c.ID }

func (c *Concession) AssignOwner(userID int64) { c.OwnerID = userID }

func (c *Concession) OwnedBy() int64 { return c.OwnerID }

func (c *Concession) String() string {
	return fmt.Sprintf("RETAILER: %d SUPPLIER: %d PRODUCT: %s", c.RetailerID, c.SupplierID, c.Product)
}
