package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"erpdesk/internal/config"
	appctx "erpdesk/internal/core/context"
	"erpdesk/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "erpdesk",
		Short:        "Desk API for report filter forms and item label price sync",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newReportsCmd(),
		newLabelsCmd(),
		newTokenCmd(),
	)
	return root
}

// loadConfig reads the environment and builds the process logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Logger())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	return cfg, log, nil
}

// commandContext attaches a trace and, when user is set, a session to ctx.
func commandContext(ctx context.Context, user string, defaults map[string]string) context.Context {
	ctx = appctx.EnsureTrace(ctx)
	if user != "" || len(defaults) > 0 {
		ctx = appctx.WithSession(ctx, &appctx.Session{User: user, Defaults: defaults})
	}
	return ctx
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-2] + ".."
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
