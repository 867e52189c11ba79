// Command muteme mutes whoever asks for it with the trigger phrase.
package main

import (
	"context"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pscheid92/cyan/bot"
	"github.com/pscheid92/cyan/event"
	"github.com/pscheid92/cyan/internal/app"
	"github.com/pscheid92/cyan/internal/platform/config"
	"github.com/pscheid92/cyan/internal/platform/logging"
	"github.com/pscheid92/cyan/message"
	"github.com/pscheid92/cyan/model"
	"github.com/pscheid92/cyan/openapi"
)

const (
	trigger      = "我要自闭"
	replyMuted   = "自闭成功 ( • ̀ω•́ )✧"
	replyTooHigh = "你权限太大了，我把握不住 ╮(╯﹏╰）╭"

	minMute = 10
	maxMute = 60
)

type muter struct {
	minutes func() int
}

func newMuter() *muter {
	return &muter{minutes: func() int { return minMute + rand.IntN(maxMute-minMute+1) }}
}

func (m *muter) handle(ctx context.Context, b *bot.Bot, msg *model.Message) error {
	if strings.TrimSpace(message.FromMessage(msg).PlainText()) != trigger || msg.Author == nil {
		return nil
	}

	d := time.Duration(m.minutes()) * time.Minute
	err := b.MuteMember(ctx, msg.GuildID, msg.Author.ID, d)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Muted member", "guild_id", msg.GuildID, "user_id", msg.Author.ID, "duration", d)
		_, err = b.Reply(ctx, msg, message.Text(replyMuted))
		return err
	case openapi.IsCode(err, openapi.CodeMuteNoPermission):
		_, err = b.Reply(ctx, msg, message.Text(replyTooHigh))
		return err
	default:
		return err
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Muteme starting", "env", cfg.AppEnv, "api", cfg.BaseURL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := newMuter()
	err = app.Run(ctx, cfg, func(s *bot.Session) error {
		return bot.On(s, event.ChannelMessageReceived, m.handle)
	})
	if err != nil {
		slog.Error("Muteme stopped", "error", err)
		os.Exit(1)
	}
}
