package migration

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/depot/internal/entity"
)

const (
	ownerFK    = "(owner_id) REFERENCES users (id) ON DELETE CASCADE"
	retailerFK = "(retailer_id) REFERENCES retailers (id) ON DELETE CASCADE"
	supplierFK = "(supplier_id) REFERENCES suppliers (id) ON DELETE CASCADE"
)

type table struct {
	model       any
	foreignKeys []string
}

// tables lists every table in dependency order.
var tables = []table{
	{model: (*entity.User)(nil)},
	{model: (*entity.Supplier)(nil), foreignKeys: []string{ownerFK}},
	{model: (*entity.Retailer)(nil), foreignKeys: []string{ownerFK}},
	{model: (*entity.RetailerSupplier)(nil), foreignKeys: []string{retailerFK, supplierFK}},
	{model: (*entity.Order)(nil), foreignKeys: []string{ownerFK}},
	{model: (*entity.Concession)(nil), foreignKeys: []string{ownerFK, retailerFK, supplierFK}},
	{model: (*entity.Memo)(nil), foreignKeys: []string{ownerFK, retailerFK, supplierFK}},
	{model: (*entity.ManualOrder)(nil), foreignKeys: []string{ownerFK, retailerFK, supplierFK}},
}

// CreateSchema creates all tables through conn, which may be the database
// itself or an open transaction. db supplies the dialect.
func CreateSchema(ctx context.Context, db *bun.DB, conn bun.IConn) error {
	for _, t := range tables {
		q := db.NewCreateTable().Conn(conn).Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", t.model, err)
		}
	}
	return nil
}

// DropSchema drops all tables in reverse dependency order.
func DropSchema(ctx context.Context, db *bun.DB, conn bun.IConn) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Conn(conn).Model(tables[i].model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table %T: %w", tables[i].model, err)
		}
	}
	return nil
}
