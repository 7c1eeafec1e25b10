package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsort/internal/server"
	"github.com/desertthunder/spotsort/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON dashboard API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	engine, err := r.newEngine(cmd)
	if err != nil {
		return err
	}

	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger), server.LoggingMiddleware(r.logger))
	router.Handler(server.NewAPI(r.spotify, engine, r.logger))

	addr := fmt.Sprintf("%s:%d", host, port)
	r.writePlain("Dashboard API listening on http://%s/api/\n", addr)

	return server.Serve(ctx, addr, router, r.logger)
}
