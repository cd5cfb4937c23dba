package entity

import (
	"fmt"

	"github.com/uptrace/bun"
)

// Supplier is reference data for a supplying account.
type Supplier struct {
	bun.BaseModel `bun:"table:suppliers,alias:s"`

	ID      int64  `bun:",pk,autoincrement"`
	OwnerID int64  `bun:"owner_id,notnull"`
	Owner   *User  `bun:"rel:belongs-to,join:owner_id=id"`
	Code    string `bun:"code,notnull,type:varchar(4)"`
	Name    string `bun:"name,notnull,type:varchar(100)"`
}

func (s *Supplier) PrimaryKey() int64 { return s.ID }

func (s *Supplier) AssignOwner(userID int64) { s.OwnerID = userID }

func (s *Supplier) OwnedBy() int64 { return s.OwnerID }

func (s *Supplier) String() string {
	return fmt.Sprintf("%s: %s", s.Code, s.Name)
}
