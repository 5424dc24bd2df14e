package models

type Group struct {
	ID        int    `db:"id"         json:"group_id"` //nolint:tagliatelle
	GroupCode string `db:"group_code" json:"group_code"`
	GroupName string `db:"group_name" json:"group_name"`
}

// GroupMember ties an account to a group. Many-to-many between users and
// groups, joined by account rather than user id.
type GroupMember struct {
	ID        int    `db:"id"         json:"member_id"` //nolint:tagliatelle
	Account   string `db:"account"    json:"account"`
	GroupCode string `db:"group_code" json:"group_code"`
}

// GroupGrant is the permission a group holds over a single menu.
type GroupGrant struct {
	ID        int    `db:"id"         json:"grant_id"` //nolint:tagliatelle
	GroupCode string `db:"group_code" json:"group_code"`
	MenuCode  string `db:"menu_code"  json:"menu_code"`
	Auth      int    `db:"auth"       json:"auth"`
}
