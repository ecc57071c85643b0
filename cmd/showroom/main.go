// Command showroom opens a window and renders a scene profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"showroom/config"
	"showroom/host"
	"showroom/internal/opengl"
	"showroom/profile"
	"showroom/session"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := cfg.Logger(os.Stderr)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("showroom stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if cfg.List {
		for _, n := range profile.Names() {
			fmt.Println(n)
		}
		return nil
	}

	desc, err := loadProfile(cfg)
	if err != nil {
		return err
	}
	if cfg.Dump {
		return profile.Encode(os.Stdout, desc)
	}

	wc := host.DefaultWindowConfig()
	wc.Width, wc.Height = cfg.Width, cfg.Height
	wc.Title = desc.Name
	wc.VSync = cfg.VSync
	wc.Samples = cfg.Samples
	window, err := host.NewWindow(wc)
	if err != nil {
		return fmt.Errorf("host surface: %w", err)
	}
	defer window.Destroy()

	backend, err := opengl.NewBackend(log)
	if err != nil {
		return err
	}

	s, err := session.New(desc, session.Deps{
		Host:               window,
		Backend:            backend,
		Logger:             log,
		AssetRoot:          cfg.AssetRoot,
		MaxConcurrentLoads: cfg.MaxLoads,
	})
	if err != nil {
		backend.Destroy()
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", "profile", desc.Name, "session", s.ID(), "assets", len(desc.Assets), "readiness", desc.Readiness)
	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("closed", "session", s.ID(), "frames", s.Frames())
	return nil
}

func loadProfile(cfg config.Config) (*profile.Description, error) {
	if cfg.SceneFile != "" {
		return profile.Load(cfg.SceneFile)
	}
	return profile.Lookup(cfg.Profile)
}
