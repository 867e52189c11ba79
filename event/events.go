package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pscheid92/cyan/model"
)

// ReadyData is the payload of READY.
type ReadyData struct {
	Version   int        `json:"version"`
	SessionID string     `json:"session_id"`
	User      model.User `json:"user"`
	Shard     [2]int     `json:"shard"`
}

// ResumedData is the payload of RESUMED.
type ResumedData struct{}

// MemberEvent carries a member change together with the guild it happened in.
type MemberEvent struct {
	Member model.Member
	Guild  *model.Guild
}

// AuditPassed carries a passed audit and the message that is now delivered.
type AuditPassed struct {
	Audit   model.MessageAudit
	Message *model.Message
}

var (
	Ready   = NewType("READY", IntentDefault, JSON[ReadyData]())
	Resumed = NewType("RESUMED", IntentDefault, ignorePayload[ResumedData])

	GuildCreated = NewType("GUILD_CREATE", IntentGuilds, JSON[model.Guild]())
	GuildUpdated = NewType("GUILD_UPDATE", IntentGuilds, JSON[model.Guild]())
	GuildDeleted = NewType("GUILD_DELETE", IntentGuilds, JSON[model.Guild]())

	ChannelCreated = NewType("CHANNEL_CREATE", IntentGuilds, decodeChannel)
	ChannelUpdated = NewType("CHANNEL_UPDATE", IntentGuilds, decodeChannel)
	ChannelDeleted = NewType("CHANNEL_DELETE", IntentGuilds, decodeChannel)

	MemberJoined  = NewType("GUILD_MEMBER_ADD", IntentGuildMembers, decodeMember)
	MemberUpdated = NewType("GUILD_MEMBER_UPDATE", IntentGuildMembers, decodeMember)
	MemberLeft    = NewType("GUILD_MEMBER_REMOVE", IntentGuildMembers, decodeMember)

	ChannelMessageReceived = NewType("AT_MESSAGE_CREATE", IntentPublicGuildMessages, decodeMessage(model.SourceChannel))
	DirectMessageReceived  = NewType("DIRECT_MESSAGE_CREATE", IntentDirectMessage, decodeMessage(model.SourceDirect))

	MessageAuditPassed   = NewType("MESSAGE_AUDIT_PASS", IntentMessageAudit, decodeAuditPassed)
	MessageAuditRejected = NewType("MESSAGE_AUDIT_REJECT", IntentMessageAudit, JSON[model.MessageAudit]())

	ReactionAdded   = NewType("MESSAGE_REACTION_ADD", IntentGuildReactions, JSON[model.Reaction]())
	ReactionRemoved = NewType("MESSAGE_REACTION_REMOVE", IntentGuildReactions, JSON[model.Reaction]())
)

// RESUMED carries an empty string rather than an object.
func ignorePayload[T any](context.Context, Resolver, json.RawMessage) (T, error) {
	var v T
	return v, nil
}

// Channel groups share the CHANNEL_* events but are not delivered as channels.
func decodeChannel(ctx context.Context, r Resolver, raw json.RawMessage) (model.Channel, error) {
	ch, err := JSON[model.Channel]()(ctx, r, raw)
	if err != nil {
		return ch, err
	}
	if ch.IsGroup() {
		return ch, ErrSkip
	}
	return ch, nil
}

func decodeMember(ctx context.Context, r Resolver, raw json.RawMessage) (MemberEvent, error) {
	m, err := JSON[model.Member]()(ctx, r, raw)
	if err != nil {
		return MemberEvent{}, err
	}
	g, err := r.Guild(ctx, m.GuildID)
	if err != nil {
		return MemberEvent{}, fmt.Errorf("resolve guild %s: %w", m.GuildID, err)
	}
	return MemberEvent{Member: m, Guild: g}, nil
}

func decodeMessage(source model.Source) Decoder[*model.Message] {
	return func(_ context.Context, _ Resolver, raw json.RawMessage) (*model.Message, error) {
		var msg model.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		msg.Source = source
		return &msg, nil
	}
}

func decodeAuditPassed(ctx context.Context, r Resolver, raw json.RawMessage) (AuditPassed, error) {
	audit, err := JSON[model.MessageAudit]()(ctx, r, raw)
	if err != nil {
		return AuditPassed{}, err
	}
	msg, err := r.ChannelMessage(ctx, audit.ChannelID, audit.MessageID)
	if err != nil {
		return AuditPassed{}, fmt.Errorf("resolve message %s: %w", audit.MessageID, err)
	}
	return AuditPassed{Audit: audit, Message: msg}, nil
}
