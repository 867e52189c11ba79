package model

import (
	"slices"
	"time"
)

type Member struct {
	User     *User     `json:"user,omitempty"`
	Nick     string    `json:"nick"`
	Roles    []string  `json:"roles"`
	JoinedAt time.Time `json:"joined_at"`
	GuildID  string    `json:"guild_id,omitempty"`
	OpUserID string    `json:"op_user_id,omitempty"`
}

// DisplayName returns the guild nickname, falling back to the username.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}

func (m Member) HasRole(roleID string) bool {
	return slices.Contains(m.Roles, roleID)
}
