package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"git.lost.host/meutraa/ryth/internal/config"
	"git.lost.host/meutraa/ryth/internal/library"
	"git.lost.host/meutraa/ryth/internal/logger"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	if err := config.LoadEnv(".env"); nil != err {
		return err
	}
	cfg, err := config.Parse(os.Args[1:])
	if nil != err {
		return err
	}

	lg, err := logger.New(cfg.Logger())
	if nil != err {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	defer lg.Sync()

	if cfg.Command == config.ManifestCommand {
		names, err := library.WriteManifest(cfg.ManifestDir)
		if nil != err {
			return err
		}
		fmt.Printf("Wrote %d archives to %s\n", len(names), library.ManifestName)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := &Program{Config: cfg, Log: lg}
	if err := p.Init(ctx); nil != err {
		p.Deinit()
		return err
	}
	defer p.Deinit()
	return p.Run(ctx)
}
