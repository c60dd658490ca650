package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transport "dailyquest-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := loadRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	if rt.cfg.Auth.Secret == "" {
		return errors.New("auth secret not configured (auth.secret or AUTH_SECRET)")
	}
	if rt.cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, rt.cfg.Postgres.URL, false, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = rt.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	api := transport.NewServer(transport.Services{
		Auth:            rt.auth,
		Questions:       rt.questions,
		Answers:         rt.answers,
		Home:            rt.home,
		Groups:          rt.groups,
		Friends:         rt.friends,
		LeaderboardSize: rt.cfg.Leaderboard.Size,
	}, log.With("component", "http"))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     api.Router(),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket streams stay open
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting dailyquest service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-errCh:
		log.Error("server failed", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
