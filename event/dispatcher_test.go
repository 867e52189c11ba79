package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/cyan/cyanerr"
	"github.com/pscheid92/cyan/internal/platform/correlation"
	"github.com/pscheid92/cyan/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeResolver struct {
	guilds   map[string]*model.Guild
	messages map[string]*model.Message
}

func (f *fakeResolver) Guild(_ context.Context, guildID string) (*model.Guild, error) {
	if g, ok := f.guilds[guildID]; ok {
		return g, nil
	}
	return nil, errors.New("guild not found")
}

func (f *fakeResolver) ChannelMessage(_ context.Context, _, messageID string) (*model.Message, error) {
	if m, ok := f.messages[messageID]; ok {
		return m, nil
	}
	return nil, errors.New("message not found")
}

// startDispatcher runs d until the test ends.
func startDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// collector records payloads from concurrent handler invocations.
type collector[T any] struct {
	mu    sync.Mutex
	items []T
}

func (c *collector[T]) handle(_ context.Context, v T) error {
	c.mu.Lock()
	c.items = append(c.items, v)
	c.mu.Unlock()
	return nil
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestListen_IntentsUnion(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{})

	require.NoError(t, Listen(d, Ready, func(context.Context, ReadyData) error { return nil }))
	assert.Equal(t, IntentDefault, d.Intents())

	require.NoError(t, Listen(d, ChannelMessageReceived, func(context.Context, *model.Message) error { return nil }))
	require.NoError(t, Listen(d, GuildCreated, func(context.Context, model.Guild) error { return nil }))

	assert.Equal(t, IntentPublicGuildMessages|IntentGuilds, d.Intents())
}

func TestListen_FrozenRejectsNewIntents(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{})
	require.NoError(t, Listen(d, GuildCreated, func(context.Context, model.Guild) error { return nil }))
	d.Freeze()

	err := Listen(d, MemberJoined, func(context.Context, MemberEvent) error { return nil })
	require.Error(t, err)
	assert.True(t, cyanerr.IsKind(err, cyanerr.KindInvalidOperation))

	// Same intent and default intent are still allowed.
	assert.NoError(t, Listen(d, ChannelCreated, func(context.Context, model.Channel) error { return nil }))
	assert.NoError(t, Listen(d, Resumed, func(context.Context, ResumedData) error { return nil }))

	d.Unfreeze()
	assert.NoError(t, Listen(d, MemberJoined, func(context.Context, MemberEvent) error { return nil }))
	assert.True(t, d.Intents().Has(IntentGuildMembers))
}

func TestDispatch_PreservesOrder(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{})
	var got collector[*model.Message]
	require.NoError(t, Listen(d, ChannelMessageReceived, got.handle))
	startDispatcher(t, d)

	ctx := context.Background()
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, d.Dispatch(ctx, "AT_MESSAGE_CREATE", raw(t, map[string]any{"id": id})))
	}

	waitFor(t, func() bool { return len(got.snapshot()) == 5 })
	var ids []string
	for _, m := range got.snapshot() {
		ids = append(ids, m.ID)
		assert.Equal(t, model.SourceChannel, m.Source)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
}

func TestDispatch_DirectMessageSource(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{})
	var got collector[*model.Message]
	require.NoError(t, Listen(d, DirectMessageReceived, got.handle))
	startDispatcher(t, d)

	require.NoError(t, d.Dispatch(context.Background(), "DIRECT_MESSAGE_CREATE", raw(t, map[string]any{"id": "d"})))

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	assert.Equal(t, model.SourceDirect, got.snapshot()[0].Source)
}

func TestDispatch_SkipsChannelGroups(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDispatcher(&fakeResolver{}, Options{Registerer: reg})
	var got collector[model.Channel]
	require.NoError(t, Listen(d, ChannelCreated, got.handle))
	startDispatcher(t, d)

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, "CHANNEL_CREATE", raw(t, map[string]any{"id": "group", "type": int(model.ChannelTypeGroup)})))
	require.NoError(t, d.Dispatch(ctx, "CHANNEL_CREATE", raw(t, map[string]any{"id": "text", "type": int(model.ChannelTypeText)})))

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	assert.Equal(t, "text", got.snapshot()[0].ID)
	waitFor(t, func() bool {
		return testutil.ToFloat64(d.metrics.Events.WithLabelValues("CHANNEL_CREATE", "skipped")) == 1
	})
}

func TestDispatch_FailuresDoNotStopDispatching(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDispatcher(&fakeResolver{}, Options{Registerer: reg})

	var got collector[model.Guild]
	require.NoError(t, Listen(d, GuildCreated, func(ctx context.Context, g model.Guild) error {
		switch g.ID {
		case "panic":
			panic("boom")
		case "error":
			return errors.New("handler failed")
		}
		return got.handle(ctx, g)
	}))
	startDispatcher(t, d)

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, "GUILD_CREATE", json.RawMessage(`{"id": 12`)))
	require.NoError(t, d.Dispatch(ctx, "GUILD_CREATE", raw(t, map[string]any{"id": "panic"})))
	require.NoError(t, d.Dispatch(ctx, "GUILD_CREATE", raw(t, map[string]any{"id": "error"})))
	require.NoError(t, d.Dispatch(ctx, "GUILD_CREATE", raw(t, map[string]any{"id": "ok"})))

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	assert.Equal(t, "ok", got.snapshot()[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.Events.WithLabelValues("GUILD_CREATE", "decode_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.HandlerErrors.WithLabelValues("GUILD_CREATE", "panic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.HandlerErrors.WithLabelValues("GUILD_CREATE", "error")))
	waitFor(t, func() bool {
		return testutil.ToFloat64(d.metrics.Events.WithLabelValues("GUILD_CREATE", "handled")) == 1
	})
}

func TestDispatch_UnhandledCounted(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{})
	startDispatcher(t, d)

	require.NoError(t, d.Dispatch(context.Background(), "FORUM_THREAD_CREATE", json.RawMessage(`{}`)))
	waitFor(t, func() bool {
		return testutil.ToFloat64(d.metrics.Events.WithLabelValues("FORUM_THREAD_CREATE", "unhandled")) == 1
	})
}

func TestDispatch_CorrelationIDPerEvent(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{})
	var ids collector[string]
	require.NoError(t, Listen(d, Resumed, func(ctx context.Context, _ ResumedData) error {
		id, _ := correlation.ID(ctx)
		return ids.handle(ctx, id)
	}))
	startDispatcher(t, d)

	require.NoError(t, d.Dispatch(context.Background(), "RESUMED", nil))
	require.NoError(t, d.Dispatch(context.Background(), "RESUMED", json.RawMessage(`""`)))

	waitFor(t, func() bool { return len(ids.snapshot()) == 2 })
	got := ids.snapshot()
	assert.NotEmpty(t, got[0])
	assert.NotEqual(t, got[0], got[1])
}

func TestDispatch_MemberEventResolvesGuild(t *testing.T) {
	resolver := &fakeResolver{guilds: map[string]*model.Guild{"g1": {ID: "g1", Name: "Guild"}}}
	d := NewDispatcher(resolver, Options{})
	var got collector[MemberEvent]
	require.NoError(t, Listen(d, MemberJoined, got.handle))
	startDispatcher(t, d)

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, "GUILD_MEMBER_ADD", raw(t, map[string]any{"guild_id": "missing", "user": map[string]any{"id": "u0"}})))
	require.NoError(t, d.Dispatch(ctx, "GUILD_MEMBER_ADD", raw(t, map[string]any{"guild_id": "g1", "nick": "new", "user": map[string]any{"id": "u1"}})))

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	ev := got.snapshot()[0]
	assert.Equal(t, "new", ev.Member.Nick)
	require.NotNil(t, ev.Guild)
	assert.Equal(t, "Guild", ev.Guild.Name)
}

func TestDispatch_AuditPassedFetchesMessage(t *testing.T) {
	resolver := &fakeResolver{messages: map[string]*model.Message{"m1": {ID: "m1", Content: "approved"}}}
	d := NewDispatcher(resolver, Options{})
	var got collector[AuditPassed]
	require.NoError(t, Listen(d, MessageAuditPassed, got.handle))
	startDispatcher(t, d)

	require.NoError(t, d.Dispatch(context.Background(), "MESSAGE_AUDIT_PASS",
		raw(t, map[string]any{"audit_id": "a1", "message_id": "m1", "channel_id": "c1", "guild_id": "g1"})))

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	ev := got.snapshot()[0]
	assert.Equal(t, "a1", ev.Audit.AuditID)
	assert.Equal(t, "approved", ev.Message.Content)
}

func TestDispatch_BlocksWhenFullUntilContextDone(t *testing.T) {
	d := NewDispatcher(&fakeResolver{}, Options{QueueSize: 1})
	require.NoError(t, d.Dispatch(context.Background(), "READY", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Dispatch(ctx, "READY", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIntent_String(t *testing.T) {
	assert.Equal(t, "default", IntentDefault.String())
	assert.Equal(t, "guilds|public_guild_messages", (IntentGuilds | IntentPublicGuildMessages).String())
	assert.Equal(t, "guilds|0x4", (IntentGuilds | 1<<2).String())
}

func TestReactionDecoding(t *testing.T) {
	r, err := ReactionAdded.Decode(context.Background(), nil, json.RawMessage(
		`{"user_id":"u1","guild_id":"g1","channel_id":"c1","target":{"id":"m1","type":0},"emoji":{"id":"128512","type":2}}`))
	require.NoError(t, err)

	assert.Equal(t, "m1", r.Target.ID)
	assert.Equal(t, model.ReactionTargetMessage, r.Target.Type)
	emoji, ok := r.Emoji.Emoji()
	assert.True(t, ok)
	assert.Equal(t, '😀', emoji)
}
