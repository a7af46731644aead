package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"trackswift/internal/cli"
	"trackswift/internal/config"
	"trackswift/internal/logger"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	app := cli.NewApp(cfg, os.Stdin, os.Stdout, logger.WithComponent("cli"))
	code := cli.Execute(ctx, app, os.Args[1:])
	stop()
	os.Exit(code)
}
