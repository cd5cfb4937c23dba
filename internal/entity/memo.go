package entity

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/uptrace/bun"
)

// Memo stores order related notes that fall short of a concession.
type Memo struct {
	bun.BaseModel `bun:"table:memos,alias:m"`

	ID         int64     `bun:",pk,autoincrement"`
	OwnerID    int64     `bun:"owner_id,notnull"`
	Owner      *User     `bun:"rel:belongs-to,join:owner_id=id"`
	RetailerID int64     `bun:"retailer_id,notnull"`
	SupplierID int64     `bun:"supplier_id,notnull"`
	StartDate  time.Time `bun:"start_date,notnull,type:date"`
	EndDate    time.Time `bun:"end_date,notnull,type:date"`
	Content    string    `bun:"content,notnull,type:text"`
}

func (m *Memo) PrimaryKey() int64 { return m.ID }

func (m *Memo) AssignOwner(userID int64) { m.OwnerID = userID }

func (m *Memo) OwnedBy() int64 { return m.OwnerID }

func (m *Memo) String() string {
	return fmt.Sprintf("RETAILER: %d SUPPLIER: %d  START: %s, END: %s - (%d characters)",
		m.RetailerID, m.SupplierID, m.StartDate.Format(DateLayout), m.EndDate.Format(DateLayout), utf8.RuneCountInString(m.Content))
}
