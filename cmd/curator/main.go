package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"foodcurator/internal/app"
	"foodcurator/internal/config"
	"foodcurator/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			log.RotateAll()
		}
	}()

	application := app.NewApp(cfg, log)

	err := application.Run(ctx, os.Stdin, os.Stdout)
	if err != nil {
		log.Error("Curator stopped: %v", err)
	}

	stop()
	signal.Stop(hup)
	application.Close()
	log.Close()

	if err != nil {
		os.Exit(1)
	}
}
