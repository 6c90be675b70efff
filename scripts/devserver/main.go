// Command devserver runs the local reference chat server so the client can
// be exercised without a real deployment.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/vovakirdan/wirechat-client/internal/devserver"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	secret := flag.String("secret", "dev-secret-change-me", "JWT signing secret")
	level := flag.String("log-level", "debug", "log level")
	flag.Parse()

	logger := log.New(*level)

	srv := devserver.New(*secret, logger)
	srv.SeedRoom(devserver.Room{ID: 1, Title: "lobby", IsPrivate: false, MaxMembers: 100})
	srv.SeedRoom(devserver.Room{ID: 2, Title: "backroom", IsPrivate: true, CreatorID: 1, MaxMembers: 10})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", *addr).Msg("dev server listening")
	if err := srv.Run(ctx, *addr); err != nil {
		logger.Error().Err(err).Msg("dev server exited")
		os.Exit(1)
	}
}
