package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pscheid92/cyan/model"
)

func (c *Client) ListRoles(ctx context.Context, guildID string) ([]model.Role, error) {
	var out struct {
		Roles []model.Role `json:"roles"`
	}
	r := request{method: http.MethodGet, route: "/guilds/{guild_id}/roles", path: path("/guilds/%s/roles", guildID)}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}
	return out.Roles, nil
}

// roleBody is the create/update payload: filter flags which info fields apply.
type roleBody struct {
	Filter struct {
		Name  int `json:"name"`
		Color int `json:"color"`
		Hoist int `json:"hoist"`
	} `json:"filter"`
	Info struct {
		Name  *string `json:"name"`
		Color *uint32 `json:"color"`
		Hoist int     `json:"hoist"`
	} `json:"info"`
}

func flag(set bool) int {
	if set {
		return 1
	}
	return 0
}

func newRoleBody(spec model.RoleSpec) roleBody {
	var b roleBody
	b.Filter.Name = flag(spec.Name != nil)
	b.Filter.Color = flag(spec.Color != nil)
	b.Filter.Hoist = flag(spec.Shown != nil)

	b.Info.Name = spec.Name
	if spec.Color != nil {
		hex := spec.Color.Hex()
		b.Info.Color = &hex
	}
	b.Info.Hoist = flag(spec.Shown != nil && *spec.Shown)
	return b
}

func (c *Client) CreateRole(ctx context.Context, guildID string, spec model.RoleSpec) (*model.Role, error) {
	var out struct {
		Role model.Role `json:"role"`
	}
	r := request{method: http.MethodPost, route: "/guilds/{guild_id}/roles", path: path("/guilds/%s/roles", guildID), body: newRoleBody(spec)}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to create role in guild %s: %w", guildID, err)
	}
	return &out.Role, nil
}

func (c *Client) UpdateRole(ctx context.Context, guildID, roleID string, spec model.RoleSpec) (*model.Role, error) {
	var out struct {
		Role model.Role `json:"role"`
	}
	r := request{
		method: http.MethodPatch,
		route:  "/guilds/{guild_id}/roles/{role_id}",
		path:   path("/guilds/%s/roles/%s", guildID, roleID),
		body:   newRoleBody(spec),
	}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to update role %s: %w", roleID, err)
	}
	if out.Role.ID == "" {
		out.Role.ID = roleID
	}
	return &out.Role, nil
}

func (c *Client) DeleteRole(ctx context.Context, guildID, roleID string) error {
	r := request{method: http.MethodDelete, route: "/guilds/{guild_id}/roles/{role_id}", path: path("/guilds/%s/roles/%s", guildID, roleID)}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to delete role %s: %w", roleID, err)
	}
	return nil
}
