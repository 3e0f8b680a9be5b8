package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/remindbot/internal/bot"
	"github.com/pathakanu/remindbot/internal/config"
	"github.com/pathakanu/remindbot/internal/database"
	"github.com/pathakanu/remindbot/internal/dispatcher"
	"github.com/pathakanu/remindbot/internal/matrix"
	"github.com/pathakanu/remindbot/internal/stopflag"
	"github.com/pathakanu/remindbot/internal/store"
	"github.com/pathakanu/remindbot/internal/twilio"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	logger.Info().Msg("initialising")

	cfg, err := config.Load("config.toml")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database).Msg("failed to open database")
	}

	reminders := store.NewReminders(db)
	addressBook := store.NewAddressBook(db)

	smsClient := twilio.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNum)
	mxClient := matrix.NewClient(cfg.Matrix.Host, cfg.Matrix.AccessToken, logger)

	handler := bot.New(cfg.CommandPrefix, reminders, mxClient, logger)
	disp := dispatcher.New(reminders, addressBook, smsClient, logger)

	flag := stopflag.New()
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info().Msg("shutting down...")
		flag.Set()
	}()

	go disp.Run(flag)

	// A single consumer keeps each room's commands handled in arrival order.
	events := make(chan matrix.RoomEvent, 64)
	go handler.Consume(context.Background(), events)

	logger.Info().Msg("starting")

	syncer := matrix.NewSyncer(mxClient, flag, logger)
	for res := range syncer.Stream() {
		if res.Err != nil {
			logger.Error().Err(res.Err).Msg("sync failed")
			continue
		}
		// The first snapshot is historical catch-up; only live events are
		// acted on.
		if !res.Snapshot.IsLive {
			continue
		}
		for _, re := range res.Snapshot.Response.Events() {
			events <- re
		}
	}
	close(events)

	logger.Info().Msg("sync stream drained, exiting")
}
