package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DRSN-tech/catalog-sync/internal/app"
	config "github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.NewSlogLogger()

	cliApp := &cli.App{
		Name:  "catalog-sync",
		Usage: "локальный каталог филиала с синхронизацией остатков",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "запустить HTTP API каталога",
				Action: func(*cli.Context) error {
					cfg, err := config.Load(log)
					if err != nil {
						return err
					}

					application, err := app.NewApp(cfg, log)
					if err != nil {
						return err
					}

					return application.Run()
				},
			},
			{
				Name:  "sync",
				Usage: "однократно синхронизировать каталог с сервером",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(log)
					if err != nil {
						return err
					}

					application, err := app.NewApp(cfg, log)
					if err != nil {
						return err
					}

					ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer cancel()

					return application.SyncOnce(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "применить миграции базы",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "откатить последнюю миграцию"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(log)
					if err != nil {
						return err
					}

					return app.Migrate(c.Context, cfg, log, c.Bool("down"))
				},
			},
		},
	}

	if err := cliApp.RunContext(context.Background(), os.Args); err != nil {
		log.Errorf(err, "application failed")
		os.Exit(1)
	}
}
