package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/s1natex/todo-GO/internal/config"
	"github.com/s1natex/todo-GO/internal/kv"
	"github.com/s1natex/todo-GO/internal/tasks"
)

var Version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs: the resolved config, a logger
// and a way to open the configured backend.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	storeFlag     string
	storePathFlag string

	openStore func(context.Context, kv.Config) (kv.Store, error)
}

func newApp() *app {
	return &app{openStore: kv.Open}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "todo",
		Short:        "Task list manager",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.storeFlag, "store", "", "storage backend: memory, file, sqlite or redis (env TODO_STORE)")
	root.PersistentFlags().StringVar(&a.storePathFlag, "store-path", "", "file or sqlite path (env TODO_STORE_PATH)")

	root.AddCommand(serveCmd(a))
	root.AddCommand(addCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(toggleCmd(a))
	root.AddCommand(rmCmd(a))
	root.AddCommand(clearCmd(a))
	root.AddCommand(themeCmd(a))

	return root
}

// configure resolves the environment with the store flags layered on top.
func (a *app) configure(logOut io.Writer) error {
	getenv := func(k string) string {
		switch {
		case k == "TODO_STORE" && a.storeFlag != "":
			return a.storeFlag
		case k == "TODO_STORE_PATH" && a.storePathFlag != "":
			return a.storePathFlag
		}
		return os.Getenv(k)
	}
	cfg, err := config.FromEnv(getenv)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.LogLevel, logOut)
	slog.SetDefault(a.logger) // for third-party packages that use slog
	return nil
}

// session opens the backend and loads one task store from it. Failure here
// is an initialization error: callers stop instead of running half-wired.
func (a *app) session(ctx context.Context) (*tasks.Store, func(), error) {
	backend, err := a.openStore(ctx, a.cfg.Store)
	if err != nil {
		a.logger.Error("store_open_failed",
			slog.String("backend", string(a.cfg.Store.Backend)),
			slog.String("error", err.Error()),
		)
		return nil, nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Backend, err)
	}
	store, err := tasks.NewStore(ctx, backend, tasks.WithLogger(a.logger))
	if err != nil {
		_ = backend.Close()
		a.logger.Error("store_init_failed", slog.String("error", err.Error()))
		return nil, nil, err
	}
	return store, func() { _ = backend.Close() }, nil
}

func newLogger(level slog.Level, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
