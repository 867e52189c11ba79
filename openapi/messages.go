package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pscheid92/cyan/message"
	"github.com/pscheid92/cyan/model"
)

// SendChannelMessage posts content to a guild channel. replyTo, when not
// empty, is the id of the message being answered. A message held for review
// returns *AuditPendingError.
func (c *Client) SendChannelMessage(ctx context.Context, channelID string, content message.Content, replyTo string) (*model.Message, error) {
	r := request{
		method: http.MethodPost,
		route:  "/channels/{channel_id}/messages",
		path:   path("/channels/%s/messages", channelID),
		body:   outgoing(content, replyTo),
	}
	msg, err := c.sendMessage(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	msg.Source = model.SourceChannel
	return msg, nil
}

// ChannelMessage fetches one message of a channel.
func (c *Client) ChannelMessage(ctx context.Context, channelID, messageID string) (*model.Message, error) {
	r := request{
		method: http.MethodGet,
		route:  "/channels/{channel_id}/messages/{message_id}",
		path:   path("/channels/%s/messages/%s", channelID, messageID),
	}
	raw, err := c.doRaw(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	// The message is usually wrapped as {"message": {...}}.
	var wrapped struct {
		Message *model.Message `json:"message"`
	}
	if err := decode(raw, &wrapped); err == nil && wrapped.Message != nil {
		wrapped.Message.Source = model.SourceChannel
		return wrapped.Message, nil
	}
	var msg model.Message
	if err := decode(raw, &msg); err != nil {
		return nil, err
	}
	msg.Source = model.SourceChannel
	return &msg, nil
}

// CreateDirectSession opens (or reuses) the private session with a user who
// shares sourceGuildID with the bot.
func (c *Client) CreateDirectSession(ctx context.Context, userID, sourceGuildID string) (*model.DirectSession, error) {
	body := map[string]string{"recipient_id": userID, "source_guild_id": sourceGuildID}
	var dms model.DirectSession
	r := request{method: http.MethodPost, route: "/users/@me/dms", path: "/users/@me/dms", body: body}
	if err := c.do(ctx, r, &dms); err != nil {
		return nil, fmt.Errorf("failed to create direct session with %s: %w", userID, err)
	}
	return &dms, nil
}

// SendDirectMessage posts content into a direct session identified by its guild id.
func (c *Client) SendDirectMessage(ctx context.Context, dmsGuildID string, content message.Content, replyTo string) (*model.Message, error) {
	r := request{
		method: http.MethodPost,
		route:  "/dms/{guild_id}/messages",
		path:   path("/dms/%s/messages", dmsGuildID),
		body:   outgoing(content, replyTo),
	}
	msg, err := c.sendMessage(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to send direct message: %w", err)
	}
	msg.Source = model.SourceDirect
	return msg, nil
}

func outgoing(content message.Content, replyTo string) message.Body {
	b := content.Body()
	b.MsgID = replyTo
	return b
}

func (c *Client) sendMessage(ctx context.Context, r request) (*model.Message, error) {
	raw, err := c.doRaw(ctx, r)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if pending, ok := auditPending(apiErr.body); ok {
				return nil, pending
			}
		}
		return nil, err
	}
	if pending, ok := auditPending(raw); ok {
		return nil, pending
	}

	var msg model.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode sent message: %w", err)
	}
	return &msg, nil
}
