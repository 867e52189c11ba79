// Command repeater answers every message that mentions the bot with the same content.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pscheid92/cyan/bot"
	"github.com/pscheid92/cyan/event"
	"github.com/pscheid92/cyan/internal/app"
	"github.com/pscheid92/cyan/internal/platform/config"
	"github.com/pscheid92/cyan/internal/platform/logging"
	"github.com/pscheid92/cyan/message"
	"github.com/pscheid92/cyan/model"
)

func repeat(ctx context.Context, b *bot.Bot, msg *model.Message) error {
	_, err := b.Reply(ctx, msg, message.FromMessage(msg))
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Repeater starting", "env", cfg.AppEnv, "api", cfg.BaseURL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, cfg, func(s *bot.Session) error {
		return bot.On(s, event.ChannelMessageReceived, repeat)
	})
	if err != nil {
		slog.Error("Repeater stopped", "error", err)
		os.Exit(1)
	}
}
