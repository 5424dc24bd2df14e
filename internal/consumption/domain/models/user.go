package models

import (
	"time"
)

type User struct {
	ID           int       `db:"id"            json:"user_id"` //nolint:tagliatelle
	Account      string    `db:"account"       json:"account"`
	PasswordHash string    `db:"password_hash" json:"-"`
	UserName     string    `db:"user_name"     json:"username"`
	Tel          string    `db:"tel"           json:"tel"`
	Email        string    `db:"email"         json:"email"`
	Address      string    `db:"address"       json:"address"`
	IsLocked     bool      `db:"is_locked"     json:"is_locked"`     //nolint:tagliatelle
	FlagAdmin    bool      `db:"flag_admin"    json:"flag_admin"`    //nolint:tagliatelle
	LoginCounter int       `db:"login_counter" json:"login_counter"` //nolint:tagliatelle
	CreateTime   time.Time `db:"create_time"   json:"create_time"`   //nolint:tagliatelle
}
