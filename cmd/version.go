/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fulmenhq/hookkit/internal/ops"
	"github.com/fulmenhq/hookkit/pkg/buildinfo"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show hookkit version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Show detailed build information")
	versionCmd.Flags().String("format", "text", "Output format (text|json)")

	if err := ops.RegisterCommand("version", ops.GroupSupport, versionCmd, "Show version and build information"); err != nil {
		panic(fmt.Sprintf("Failed to register version command: %v", err))
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	info := buildinfo.Get()

	if format == "json" {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "hookkit %s\n", info.Version)
	if extended {
		if info.Module != "" {
			fmt.Fprintf(out, "Module:     %s\n", info.Module)
		}
		if info.Commit != "" {
			fmt.Fprintf(out, "Commit:     %s\n", info.Commit)
		}
		if info.BuildDate != "" {
			fmt.Fprintf(out, "Built:      %s\n", info.BuildDate)
		}
		fmt.Fprintf(out, "Go:         %s\n", info.GoVersion)
		fmt.Fprintf(out, "Platform:   %s\n", info.Platform)
	}
	return nil
}
