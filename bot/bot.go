package bot

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pscheid92/cyan/cyanerr"
	"github.com/pscheid92/cyan/event"
	"github.com/pscheid92/cyan/message"
	"github.com/pscheid92/cyan/model"
	"github.com/pscheid92/cyan/openapi"
	"golang.org/x/sync/singleflight"
)

// Bot is the handler-facing view of the platform. It is safe for concurrent use.
type Bot struct {
	client *openapi.Client
	me     atomic.Pointer[model.User]
	guilds singleflight.Group
}

var _ event.Resolver = (*Bot)(nil)

func newBot(client *openapi.Client) *Bot {
	return &Bot{client: client}
}

// Client exposes the REST client for calls the Bot does not wrap.
func (b *Bot) Client() *openapi.Client {
	return b.client
}

// Me is the bot's own user, nil before the session started.
func (b *Bot) Me() *model.User {
	return b.me.Load()
}

func (b *Bot) refreshMe(ctx context.Context) (*model.User, error) {
	u, err := b.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	b.me.Store(u)
	return u, nil
}

// Guild fetches a guild. Concurrent lookups of the same guild share one request.
func (b *Bot) Guild(ctx context.Context, guildID string) (*model.Guild, error) {
	v, err, _ := b.guilds.Do(guildID, func() (any, error) {
		return b.client.Guild(ctx, guildID)
	})
	if err != nil {
		return nil, err
	}
	g := *v.(*model.Guild)
	return &g, nil
}

func (b *Bot) Guilds(ctx context.Context) ([]model.Guild, error) {
	return b.client.ListGuilds(ctx)
}

// GuildOwner returns the owner of g, or nil when the platform does not report one.
func (b *Bot) GuildOwner(ctx context.Context, g model.Guild) (*model.Member, error) {
	if !g.HasOwner() {
		return nil, nil
	}
	return b.optionalMember(ctx, g.ID, g.OwnerID)
}

func (b *Bot) Member(ctx context.Context, guildID, userID string) (*model.Member, error) {
	return b.client.Member(ctx, guildID, userID)
}

func (b *Bot) Members(ctx context.Context, guildID string) ([]model.Member, error) {
	return b.client.ListMembers(ctx, guildID)
}

// optionalMember treats a member that left the guild as absent.
func (b *Bot) optionalMember(ctx context.Context, guildID, userID string) (*model.Member, error) {
	m, err := b.client.Member(ctx, guildID, userID)
	if openapi.IsCode(err, openapi.CodeMemberNotFound) {
		return nil, nil
	}
	return m, err
}

// Channel fetches a channel; channel groups are rejected.
func (b *Bot) Channel(ctx context.Context, channelID string) (*model.Channel, error) {
	ch, err := b.client.Channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch.IsGroup() {
		return nil, cyanerr.InvalidTarget("channel is a channel group").WithContext("channel_id", channelID)
	}
	return ch, nil
}

func (b *Bot) ChannelGroup(ctx context.Context, groupID string) (*model.Channel, error) {
	ch, err := b.client.Channel(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !ch.IsGroup() {
		return nil, cyanerr.InvalidTarget("channel is not a channel group").
			WithContext("channel_id", groupID).
			WithContext("type", ch.Type.String())
	}
	return ch, nil
}

func (b *Bot) ChannelMessage(ctx context.Context, channelID, messageID string) (*model.Message, error) {
	return b.client.ChannelMessage(ctx, channelID, messageID)
}

// GuildChannels lists the channels of a guild without the channel groups.
func (b *Bot) GuildChannels(ctx context.Context, guildID string) ([]model.Channel, error) {
	all, err := b.client.ListChannels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, model.Channel.IsGroup), nil
}

func (b *Bot) GuildChannelGroups(ctx context.Context, guildID string) ([]model.Channel, error) {
	all, err := b.client.ListChannels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(c model.Channel) bool { return !c.IsGroup() }), nil
}

// GroupChildren lists the channels placed directly under group.
func (b *Bot) GroupChildren(ctx context.Context, group model.Channel) ([]model.Channel, error) {
	if !group.IsGroup() {
		return nil, cyanerr.InvalidTarget("channel is not a channel group").WithContext("channel_id", group.ID)
	}
	channels, err := b.GuildChannels(ctx, group.GuildID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(channels, func(c model.Channel) bool { return !c.InGroup(group.ID) }), nil
}

// ChannelOwner returns the member who created ch. It is nil for channels
// without an owner and for owners who left the guild.
func (b *Bot) ChannelOwner(ctx context.Context, ch model.Channel) (*model.Member, error) {
	if !ch.HasOwner() {
		return nil, nil
	}
	return b.optionalMember(ctx, ch.GuildID, ch.OwnerID)
}

func (b *Bot) Roles(ctx context.Context, guildID string) ([]model.Role, error) {
	return b.client.ListRoles(ctx, guildID)
}

func (b *Bot) Role(ctx context.Context, guildID, roleID string) (*model.Role, error) {
	roles, err := b.client.ListRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(roles, func(r model.Role) bool { return r.ID == roleID })
	if i < 0 {
		return nil, cyanerr.InvalidTarget("role not found").
			WithContext("guild_id", guildID).
			WithContext("role_id", roleID)
	}
	return &roles[i], nil
}

// MemberRoles resolves the role ids of m into roles, in guild order.
func (b *Bot) MemberRoles(ctx context.Context, m model.Member) ([]model.Role, error) {
	if m.GuildID == "" {
		return nil, cyanerr.InvalidOperation("member carries no guild id")
	}
	roles, err := b.client.ListRoles(ctx, m.GuildID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(roles, func(r model.Role) bool { return !m.HasRole(r.ID) }), nil
}

func (b *Bot) CreateRole(ctx context.Context, guildID string, spec model.RoleSpec) (*model.Role, error) {
	return b.client.CreateRole(ctx, guildID, spec)
}

func (b *Bot) UpdateRole(ctx context.Context, guildID, roleID string, spec model.RoleSpec) (*model.Role, error) {
	return b.client.UpdateRole(ctx, guildID, roleID, spec)
}

// DeleteRole removes a custom role. The built-in roles cannot be deleted.
func (b *Bot) DeleteRole(ctx context.Context, guildID string, role model.Role) error {
	if role.IsDefault() {
		return cyanerr.InvalidOperation("built-in roles cannot be deleted").WithContext("role_id", role.ID)
	}
	return b.client.DeleteRole(ctx, guildID, role.ID)
}

func (b *Bot) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return b.client.AddMemberRole(ctx, guildID, userID, roleID, "")
}

func (b *Bot) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return b.client.RemoveMemberRole(ctx, guildID, userID, roleID, "")
}

// AddChannelOperator makes userID an operator of ch.
func (b *Bot) AddChannelOperator(ctx context.Context, ch model.Channel, userID string) error {
	return b.client.AddMemberRole(ctx, ch.GuildID, userID, model.RoleChannelOperator, ch.ID)
}

func (b *Bot) RemoveChannelOperator(ctx context.Context, ch model.Channel, userID string) error {
	return b.client.RemoveMemberRole(ctx, ch.GuildID, userID, model.RoleChannelOperator, ch.ID)
}

// Send posts a message to a guild channel.
func (b *Bot) Send(ctx context.Context, channelID string, parts ...message.Part) (*model.Message, error) {
	return b.client.SendChannelMessage(ctx, channelID, message.Build(parts...), "")
}

// Reply answers msg where it was received, in its channel or direct session.
func (b *Bot) Reply(ctx context.Context, msg *model.Message, parts ...message.Part) (*model.Message, error) {
	content := message.Build(parts...)
	if msg.Source == model.SourceDirect {
		return b.client.SendDirectMessage(ctx, msg.GuildID, content, msg.ID)
	}
	return b.client.SendChannelMessage(ctx, msg.ChannelID, content, msg.ID)
}

// SendDirect opens the direct session with userID, who must share
// sourceGuildID with the bot, and posts the message there.
func (b *Bot) SendDirect(ctx context.Context, userID, sourceGuildID string, parts ...message.Part) (*model.Message, error) {
	dms, err := b.client.CreateDirectSession(ctx, userID, sourceGuildID)
	if err != nil {
		return nil, err
	}
	return b.client.SendDirectMessage(ctx, dms.GuildID, message.Build(parts...), "")
}

// Announce pins msg as the announcement of its guild.
func (b *Bot) Announce(ctx context.Context, msg *model.Message) (*model.Announcement, error) {
	if msg.Source == model.SourceDirect {
		return nil, cyanerr.InvalidOperation("direct messages cannot be announced").WithContext("message_id", msg.ID)
	}
	return b.client.Announce(ctx, msg.ChannelID, msg.ID)
}

func (b *Bot) RecallAnnouncement(ctx context.Context, channelID string) error {
	return b.client.RecallAnnouncement(ctx, channelID)
}

// ScheduleChannel fetches a channel and checks that it hosts schedules.
func (b *Bot) ScheduleChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	ch, err := b.Channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !ch.IsSchedule() {
		return nil, cyanerr.InvalidOperation("channel is not a schedule channel").
			WithContext("channel_id", channelID).
			WithContext("type", ch.Type.String())
	}
	return ch, nil
}

func requireSchedule(ch model.Channel) error {
	if !ch.IsSchedule() {
		return cyanerr.InvalidTarget("channel is not a schedule channel").WithContext("channel_id", ch.ID)
	}
	return nil
}

// Schedules lists the schedules of ch starting at since; a zero since lists all.
func (b *Bot) Schedules(ctx context.Context, ch model.Channel, since time.Time) ([]model.Schedule, error) {
	if err := requireSchedule(ch); err != nil {
		return nil, err
	}
	return b.client.ListSchedules(ctx, ch.ID, since)
}

func (b *Bot) CreateSchedule(ctx context.Context, ch model.Channel, s model.Schedule) (*model.Schedule, error) {
	if err := requireSchedule(ch); err != nil {
		return nil, err
	}
	if !s.EndTimestamp.After(s.StartTimestamp.Time) {
		return nil, fmt.Errorf("schedule %q ends before it starts", s.Name)
	}
	return b.client.CreateSchedule(ctx, ch.ID, s)
}

func (b *Bot) UpdateSchedule(ctx context.Context, ch model.Channel, scheduleID string, s model.Schedule) (*model.Schedule, error) {
	if err := requireSchedule(ch); err != nil {
		return nil, err
	}
	return b.client.UpdateSchedule(ctx, ch.ID, scheduleID, s)
}

func (b *Bot) DeleteSchedule(ctx context.Context, ch model.Channel, scheduleID string) error {
	if err := requireSchedule(ch); err != nil {
		return err
	}
	return b.client.DeleteSchedule(ctx, ch.ID, scheduleID)
}

// MuteGuild mutes every member of the guild for d; zero lifts the mute.
func (b *Bot) MuteGuild(ctx context.Context, guildID string, d time.Duration) error {
	return b.client.MuteGuild(ctx, guildID, d)
}

func (b *Bot) MuteGuildUntil(ctx context.Context, guildID string, until time.Time) error {
	return b.client.MuteGuildUntil(ctx, guildID, until)
}

func (b *Bot) MuteMember(ctx context.Context, guildID, userID string, d time.Duration) error {
	return b.client.MuteMember(ctx, guildID, userID, d)
}

func (b *Bot) MuteMemberUntil(ctx context.Context, guildID, userID string, until time.Time) error {
	return b.client.MuteMemberUntil(ctx, guildID, userID, until)
}

func (b *Bot) UnmuteMember(ctx context.Context, guildID, userID string) error {
	return b.client.MuteMember(ctx, guildID, userID, 0)
}
