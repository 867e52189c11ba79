package openapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pscheid92/cyan/model"
)

func (c *Client) Guild(ctx context.Context, guildID string) (*model.Guild, error) {
	var g model.Guild
	r := request{method: http.MethodGet, route: "/guilds/{guild_id}", path: path("/guilds/%s", guildID)}
	if err := c.do(ctx, r, &g); err != nil {
		return nil, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	return &g, nil
}

func (c *Client) ListChannels(ctx context.Context, guildID string) ([]model.Channel, error) {
	var channels []model.Channel
	r := request{method: http.MethodGet, route: "/guilds/{guild_id}/channels", path: path("/guilds/%s/channels", guildID)}
	if err := c.do(ctx, r, &channels); err != nil {
		return nil, fmt.Errorf("failed to list channels of guild %s: %w", guildID, err)
	}
	return channels, nil
}

// ListMembers returns every member of the guild. The platform signals the
// end of the list either with a short page or with CodeMemberListEnd.
func (c *Client) ListMembers(ctx context.Context, guildID string) ([]model.Member, error) {
	var members []model.Member
	after := ""
	for {
		q := url.Values{"limit": {strconv.Itoa(c.pageSize)}}
		if after != "" {
			q.Set("after", after)
		}

		var page []model.Member
		r := request{method: http.MethodGet, route: "/guilds/{guild_id}/members", path: path("/guilds/%s/members", guildID), query: q}
		if err := c.do(ctx, r, &page); err != nil {
			if IsCode(err, CodeMemberListEnd) {
				return members, nil
			}
			return nil, fmt.Errorf("failed to list members of guild %s: %w", guildID, err)
		}
		members = append(members, page...)
		if len(page) < c.pageSize {
			return members, nil
		}

		last := page[len(page)-1]
		if last.User == nil || last.User.ID == after {
			return members, nil
		}
		after = last.User.ID
	}
}

func (c *Client) Member(ctx context.Context, guildID, userID string) (*model.Member, error) {
	var m model.Member
	r := request{method: http.MethodGet, route: "/guilds/{guild_id}/members/{user_id}", path: path("/guilds/%s/members/%s", guildID, userID)}
	if err := c.do(ctx, r, &m); err != nil {
		return nil, fmt.Errorf("failed to get member %s of guild %s: %w", userID, guildID, err)
	}
	if m.GuildID == "" {
		m.GuildID = guildID
	}
	return &m, nil
}

type muteBody struct {
	MuteSeconds      string `json:"mute_seconds,omitempty"`
	MuteEndTimestamp string `json:"mute_end_timestamp,omitempty"`
}

func muteFor(d time.Duration) muteBody {
	if d < 0 {
		d = 0
	}
	return muteBody{MuteSeconds: strconv.FormatInt(int64(d/time.Second), 10)}
}

func muteUntil(t time.Time) muteBody {
	return muteBody{MuteEndTimestamp: strconv.FormatInt(t.Unix(), 10)}
}

// MuteGuild mutes every member for d. A zero duration lifts the mute.
func (c *Client) MuteGuild(ctx context.Context, guildID string, d time.Duration) error {
	return c.muteGuild(ctx, guildID, muteFor(d))
}

func (c *Client) MuteGuildUntil(ctx context.Context, guildID string, until time.Time) error {
	return c.muteGuild(ctx, guildID, muteUntil(until))
}

func (c *Client) muteGuild(ctx context.Context, guildID string, body muteBody) error {
	r := request{method: http.MethodPatch, route: "/guilds/{guild_id}/mute", path: path("/guilds/%s/mute", guildID), body: body}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to mute guild %s: %w", guildID, err)
	}
	return nil
}

// MuteMember mutes one member for d. A zero duration lifts the mute.
func (c *Client) MuteMember(ctx context.Context, guildID, userID string, d time.Duration) error {
	return c.muteMember(ctx, guildID, userID, muteFor(d))
}

func (c *Client) MuteMemberUntil(ctx context.Context, guildID, userID string, until time.Time) error {
	return c.muteMember(ctx, guildID, userID, muteUntil(until))
}

func (c *Client) muteMember(ctx context.Context, guildID, userID string, body muteBody) error {
	r := request{
		method: http.MethodPatch,
		route:  "/guilds/{guild_id}/members/{user_id}/mute",
		path:   path("/guilds/%s/members/%s/mute", guildID, userID),
		body:   body,
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to mute member %s of guild %s: %w", userID, guildID, err)
	}
	return nil
}
