package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/pscheid92/cyan/bot"
	"github.com/pscheid92/cyan/model"
	"github.com/pscheid92/cyan/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type platform struct {
	mu      sync.Mutex
	muted   []map[string]any
	replies []string
}

func newTestBot(t *testing.T, muteStatus int, muteBody any) (*bot.Bot, *platform) {
	t.Helper()
	p := &platform{}
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /guilds/100/members/7/mute", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.muted = append(p.muted, body)
		p.mu.Unlock()
		w.WriteHeader(muteStatus)
		if muteBody != nil {
			_ = json.NewEncoder(w).Encode(muteBody)
		}
	})
	mux.HandleFunc("POST /channels/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.replies = append(p.replies, body["content"].(string))
		p.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "m2"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s, err := bot.New(srv.URL, openapi.Ticket{AppID: "1", Token: "t"})
	require.NoError(t, err)
	return s.Bot(), p
}

func triggerMessage(content string) *model.Message {
	return &model.Message{
		ID: "m1", ChannelID: "c1", GuildID: "100", Content: content,
		Author:   &model.User{ID: "7", Username: "alice"},
		Mentions: []model.User{{ID: "42", Username: "cyan-bot", Bot: true}},
	}
}

func TestMuter_MutesOnTrigger(t *testing.T) {
	b, p := newTestBot(t, http.StatusNoContent, nil)
	m := &muter{minutes: func() int { return 15 }}

	require.NoError(t, m.handle(context.Background(), b, triggerMessage("<@!42> 我要自闭 ")))

	require.Len(t, p.muted, 1)
	assert.Equal(t, "900", p.muted[0]["mute_seconds"])
	assert.Equal(t, []string{replyMuted}, p.replies)
}

func TestMuter_IgnoresOtherMessages(t *testing.T) {
	b, p := newTestBot(t, http.StatusNoContent, nil)
	m := newMuter()

	require.NoError(t, m.handle(context.Background(), b, triggerMessage("<@!42> hello")))
	assert.Empty(t, p.muted)
	assert.Empty(t, p.replies)
}

func TestMuter_RepliesWhenNotAllowed(t *testing.T) {
	b, p := newTestBot(t, http.StatusForbidden, map[string]any{"code": openapi.CodeMuteNoPermission, "message": "no permission"})
	m := newMuter()

	require.NoError(t, m.handle(context.Background(), b, triggerMessage("我要自闭")))
	assert.Equal(t, []string{replyTooHigh}, p.replies)
}

func TestNewMuter_DurationRange(t *testing.T) {
	m := newMuter()
	for range 200 {
		n := m.minutes()
		assert.GreaterOrEqual(t, n, minMute)
		assert.LessOrEqual(t, n, maxMute)
	}
}
