package entity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ManualOrder is an order received outside the electronic channel, logged by
// hand with a reference to the scanned document in blob storage.
type ManualOrder struct {
	bun.BaseModel `bun:"table:manual_orders,alias:mo"`

	ID         int64      `bun:",pk,autoincrement"`
	OwnerID    int64      `bun:"owner_id,notnull"`
	Owner      *User      `bun:"rel:belongs-to,join:owner_id=id"`
	RetailerID int64      `bun:"retailer_id,notnull"`
	SupplierID int64      `bun:"supplier_id,notnull"`
	Processing *time.Time `bun:"processing,type:date"`
	Details    string     `bun:"details,notnull,type:varchar(500)"`
	Attachment string     `bun:"attachment,notnull,type:varchar(255)"`
}

func (m *ManualOrder) PrimaryKey() int64 { return m.ID }

func (m *ManualOrder) AssignOwner(userID int64) { m.OwnerID = userID }

func (m *ManualOrder) OwnedBy() int64 { return m.OwnerID }

func (m *ManualOrder) String() string {
	processing := "None"
	if m.Processing != nil {
		processing = m.Processing.Format(DateLayout)
	}
	return fmt.Sprintf("RETAILER: %d SUPPLIER: %d PROCESSING: %s FILES: %s", m.RetailerID, m.SupplierID, processing, m.Attachment)
}
