package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a local account. Deleting a user removes every row it owns.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:",pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique,type:varchar(150)"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsAdmin      bool      `bun:"is_admin,notnull,default:false"`
	DateJoined   time.Time `bun:"date_joined,nullzero,notnull,default:current_timestamp"`
}

func (u *User) String() string {
	return u.Username
}
