package entity

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Order represents a purchase order logged against a retailer/supplier pair.
// Supplier and retailer are free codes here, not foreign keys.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID       int64     `bun:",pk,autoincrement"`
	OwnerID  int64     `bun:"owner_id,notnull"`
	Owner    *User     `bun:"rel:belongs-to,join:owner_id=id"`
	Received time.Time `bun:"received,nullzero,notnull,default:current_timestamp"`
	Supplier string    `bun:"supplier,notnull,type:varchar(4)"`
	Retailer string    `bun:"retailer,notnull,type:varchar(4)"`
	OrderNum string    `bun:"ordernum,notnull,type:varchar(20)"`
}

var _ bun.BeforeAppendModelHook = (*Order)(nil)

// BeforeAppendModel stamps the received time on insert.
func (o *Order) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		o.Received = time.Now().UTC()
	}
	return nil
}

func (o *Order) PrimaryKey() int64 { return o.ID }

func (o *Order) AssignOwner(userID int64) { o.OwnerID = userID }

func (o *Order) OwnedBy() int64 { return o.OwnerID }

func (o *Order) String() string {
	return fmt.Sprintf("%s - %s - %s - %s", o.OrderNum, o.Supplier, o.Retailer, o.Received.Format(time.RFC3339))
}
