package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/notes-api/internal/database"
	"github.com/iliyamo/notes-api/internal/queue"
)

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "notes-api",
		Short:        "Notes API server and mail worker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), envFile, false)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCommand(&envFile),
		newWorkerCommand(&envFile),
		newMigrateCommand(&envFile),
	)
	return root
}

func newServeCommand(envFile *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *envFile, skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on startup")
	return cmd
}

func newWorkerCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume mail requests from RabbitMQ or Redis and send them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), *envFile)
		},
	}
}

func newMigrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := database.Open(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.log.Info("migrations applied")
			return nil
		},
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runServe(parent context.Context, envFile string, skipMigrate bool) error {
	a, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(parent)
	defer stop()

	srv, cleanup, err := a.buildServer(ctx, !skipMigrate)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.WithField("addr", addr).WithField("env", a.cfg.Env).Info("listening")
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWorker(parent context.Context, envFile string) error {
	a, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(parent)
	defer stop()

	dispatcher, err := a.buildDispatcher()
	if err != nil {
		return err
	}

	log := a.log.WithField("driver", a.cfg.Queue.Driver)
	log.Info("mail worker started")
	switch a.cfg.Queue.Driver {
	case "rabbitmq":
		c := queue.NewRabbitConsumer(a.cfg.Queue.RabbitURL, a.cfg.Queue.Name, a.cfg.Queue.Workers, a.log)
		err = c.Run(ctx, dispatcher.Handle)
	case "redis":
		rdb, rerr := a.redis()
		if rerr != nil {
			return rerr
		}
		defer rdb.Close()
		err = queue.NewRedisQueue(rdb, a.cfg.Queue.Name, a.log).Run(ctx, dispatcher.Handle)
	default:
		return fmt.Errorf("queue driver %q has no standalone worker; serve runs its workers in-process", a.cfg.Queue.Driver)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("mail worker stopped")
	return nil
}
