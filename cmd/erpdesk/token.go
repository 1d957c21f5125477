package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"erpdesk/internal/domain/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		user     string
		secret   string
		ttl      time.Duration
		defaults map[string]string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a desk session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			cfg := auth.DefaultJWTConfig(secret)
			if ttl > 0 {
				cfg.TokenTTL = ttl
			}
			token, expiresAt, err := auth.NewJWTService(cfg).Issue(user, defaults)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Desk user the token acts for")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (default JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default 8h)")
	cmd.Flags().StringToStringVar(&defaults, "default", nil, "User default as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
