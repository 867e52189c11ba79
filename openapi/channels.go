package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pscheid92/cyan/model"
)

// Channel returns a channel or a channel group; check IsGroup on the result.
func (c *Client) Channel(ctx context.Context, channelID string) (*model.Channel, error) {
	var ch model.Channel
	r := request{method: http.MethodGet, route: "/channels/{channel_id}", path: path("/channels/%s", channelID)}
	if err := c.do(ctx, r, &ch); err != nil {
		return nil, fmt.Errorf("failed to get channel %s: %w", channelID, err)
	}
	return &ch, nil
}

type operatorBody struct {
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

func memberRoleBody(channelID string) any {
	if channelID == "" {
		return nil
	}
	var b operatorBody
	b.Channel.ID = channelID
	return b
}

// AddMemberRole grants a role. channelID scopes the channel operator role
// to one channel and is empty for other roles.
func (c *Client) AddMemberRole(ctx context.Context, guildID, userID, roleID, channelID string) error {
	r := request{
		method: http.MethodPut,
		route:  "/guilds/{guild_id}/members/{user_id}/roles/{role_id}",
		path:   path("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID),
		body:   memberRoleBody(channelID),
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to add role %s to member %s: %w", roleID, userID, err)
	}
	return nil
}

func (c *Client) RemoveMemberRole(ctx context.Context, guildID, userID, roleID, channelID string) error {
	r := request{
		method: http.MethodDelete,
		route:  "/guilds/{guild_id}/members/{user_id}/roles/{role_id}",
		path:   path("/guilds/%s/members/%s/roles/%s", guildID, userID, roleID),
		body:   memberRoleBody(channelID),
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to remove role %s from member %s: %w", roleID, userID, err)
	}
	return nil
}
