package models

type Menu struct {
	ID            int    `db:"id"             json:"menu_id"` //nolint:tagliatelle
	MenuCode      string `db:"menu_code"      json:"menu_code"`
	MenuName      string `db:"menu_name"      json:"menu_name"`
	MenuCaption   string `db:"menu_caption"   json:"menu_caption"`
	MenuNamespace string `db:"menu_namespace" json:"menu_namespace"`
	MenuAuth      int    `db:"menu_auth"      json:"menu_auth"`
}

// MenuAccess is one resolved authorization entry: a menu the user may see
// and the auth level granted on it. Auth is opaque to the resolver.
type MenuAccess struct {
	MenuCode      string `db:"menu_code"      json:"menu_code"`
	MenuName      string `db:"menu_name"      json:"menu_name"`
	MenuCaption   string `db:"menu_caption"   json:"menu_caption"`
	MenuNamespace string `db:"menu_namespace" json:"menu_namespace"`
	Auth          int    `db:"auth"           json:"auth"`
}
