package model

import (
	"encoding/json"
	"time"
)

// UnknownCapacity is reported when the platform omits a capacity field.
const UnknownCapacity = -1

type Guild struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	OwnerID     string    `json:"owner_id"`
	Owner       bool      `json:"owner"`
	MemberCount int       `json:"member_count"`
	MaxMembers  int       `json:"max_members"`
	Description string    `json:"description"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (g *Guild) UnmarshalJSON(data []byte) error {
	type alias Guild
	a := alias{MaxMembers: UnknownCapacity}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*g = Guild(a)
	return nil
}

func (g Guild) HasOwner() bool {
	return isSet(g.OwnerID)
}
