package model

// Built-in role identifiers present in every guild.
const (
	RoleEveryone        = "1"
	RoleAdministrator   = "2"
	RoleOwner           = "4"
	RoleChannelOperator = "5"
)

type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       Color  `json:"color"`
	Hoist       int    `json:"hoist"`
	Number      int    `json:"number"`
	MemberLimit int    `json:"member_limit"`
}

// Shown reports whether members with this role are listed separately.
func (r Role) Shown() bool {
	return r.Hoist != 0
}

func (r Role) IsDefault() bool {
	switch r.ID {
	case RoleEveryone, RoleAdministrator, RoleOwner, RoleChannelOperator:
		return true
	}
	return false
}

// RoleSpec describes a role create or update. Nil fields are left unchanged.
type RoleSpec struct {
	Name  *string
	Color *Color
	Shown *bool
}
