package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"skitgubben/cmd/skitgubben/shared"
	"skitgubben/internal/server"
)

// ServeCmd contains the server configuration
type ServeCmd struct {
	Addr   string `kong:"help='Server address, overrides the config file'"`
	Config string `kong:"default='skitgubben.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Dev    bool   `kong:"help='Default new rooms to development mode'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for room shuffles (optional)'"`
}

func (c *ServeCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	shared.LevelFromString(logger, cfg.Server.LogLevel, c.Debug)

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	if c.Seed != nil {
		logger.Info("using deterministic seed", "seed", *c.Seed)
	}

	manager := server.NewRoomManager(logger, c.Seed)
	for _, room := range cfg.Rooms {
		manager.GetOrCreate(room.Name, room.Development || c.Dev)
	}

	s := server.NewServer(logger, manager, c.Dev)

	logger.Info("starting skitgubben server",
		"addr", addr,
		"rooms", manager.Count(),
		"dev", c.Dev)

	ctx := shared.SetupSignalHandler(logger)

	var eg errgroup.Group
	eg.Go(func() error {
		if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
