package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pscheid92/cyan/model"
)

// Announce pins an existing channel message as the guild announcement.
func (c *Client) Announce(ctx context.Context, channelID, messageID string) (*model.Announcement, error) {
	var a model.Announcement
	r := request{
		method: http.MethodPost,
		route:  "/channels/{channel_id}/announces",
		path:   path("/channels/%s/announces", channelID),
		body:   map[string]string{"message_id": messageID},
	}
	if err := c.do(ctx, r, &a); err != nil {
		return nil, fmt.Errorf("failed to announce message %s: %w", messageID, err)
	}
	return &a, nil
}

// RecallAnnouncement removes every announcement of the channel.
func (c *Client) RecallAnnouncement(ctx context.Context, channelID string) error {
	r := request{
		method: http.MethodDelete,
		route:  "/channels/{channel_id}/announces/all",
		path:   path("/channels/%s/announces/all", channelID),
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to recall announcements of channel %s: %w", channelID, err)
	}
	return nil
}
