package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pscheid92/cyan/model"
)

const guildPageSize = 100

// GatewayURL returns the websocket address to connect the gateway to.
func (c *Client) GatewayURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, route: "/gateway", path: "/gateway"}, &out); err != nil {
		return "", fmt.Errorf("failed to get gateway url: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("gateway url missing in response")
	}
	return out.URL, nil
}

// CurrentUser returns the bot's own user.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, request{method: http.MethodGet, route: "/users/@me", path: "/users/@me"}, &u); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	u.Bot = true
	return &u, nil
}

// ListGuilds returns every guild the bot has joined, following the after cursor.
func (c *Client) ListGuilds(ctx context.Context) ([]model.Guild, error) {
	var guilds []model.Guild
	after := ""
	for {
		q := url.Values{"limit": {strconv.Itoa(guildPageSize)}}
		if after != "" {
			q.Set("after", after)
		}

		var page []model.Guild
		r := request{method: http.MethodGet, route: "/users/@me/guilds", path: "/users/@me/guilds", query: q}
		if err := c.do(ctx, r, &page); err != nil {
			return nil, fmt.Errorf("failed to list guilds: %w", err)
		}
		guilds = append(guilds, page...)
		if len(page) < guildPageSize {
			return guilds, nil
		}
		after = page[len(page)-1].ID
	}
}

// Download fetches a resource such as an avatar or guild icon. The request is
// rate limited but carries no credentials.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return data, nil
}
