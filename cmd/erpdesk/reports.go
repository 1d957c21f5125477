package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"erpdesk/internal/app"
	"erpdesk/internal/metadata"
)

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect report filter definitions",
	}
	cmd.AddCommand(newReportsListCmd(), newReportsShowCmd(), newReportsValidateCmd())
	return cmd
}

func newReportsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.NewMetadata(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-30s %-15s %s\n", "NAME", "REF DOCTYPE", "FILTERS")
			fmt.Fprintf(out, "%-30s %-15s %s\n", "----", "-----------", "-------")
			for _, def := range reg.Reports() {
				fmt.Fprintf(out, "%-30s %-15s %d\n", truncate(def.Name, 30), orDash(def.RefDoctype), len(def.Filters))
			}
			return nil
		},
	}
}

func newReportsShowCmd() *cobra.Command {
	var (
		user     string
		defaults map[string]string
	)

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Print a report's filters with defaults resolved for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.NewMetadata(nil)
			if err != nil {
				return err
			}
			def, ok := reg.Report(args[0])
			if !ok {
				return fmt.Errorf("unknown report %q", args[0])
			}
			values, err := reg.ResolveDefaults(commandContext(cmd.Context(), user, defaults), def)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\n", def.Name, orDash(def.RefDoctype))
			fmt.Fprintf(out, "%-22s %-8s %-14s %-5s %s\n", "FIELD", "TYPE", "OPTIONS", "REQD", "DEFAULT")
			for _, f := range def.Filters {
				reqd := ""
				if f.Reqd {
					reqd = "yes"
				}
				fmt.Fprintf(out, "%-22s %-8s %-14s %-5s %s\n",
					f.Fieldname, f.Fieldtype, truncate(orDash(f.Options), 14), orDash(reqd), orDash(values[f.Fieldname]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Desk user")
	cmd.Flags().StringToStringVar(&defaults, "default", nil, "User default as key=value (repeatable)")
	return cmd
}

func newReportsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file.json...]",
		Short: "Validate built-in definitions and extra report files",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.NewMetadata(nil)
			if err != nil {
				return err
			}
			n := len(reg.Reports())

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				var defs []metadata.ReportDef
				if err := json.Unmarshal(data, &defs); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for _, def := range defs {
					if err := reg.RegisterReport(def); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					n++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d report definitions OK\n", n)
			return nil
		},
	}
}
