package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fmueller/voxworker/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(cli.NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		if shouldPrintUsageHint(err) {
			fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", helpHintTarget(cmd, args))
		}
		return 1
	}
	return 0
}

var usageErrorPatterns = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
	"requires between",
	"required flag",
	"missing required",
	"invalid configuration",
}

func shouldPrintUsageHint(err error) bool {
	if err == nil {
		return false
	}

	message := strings.ToLower(strings.TrimSpace(err.Error()))
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

func helpHintTarget(root *cobra.Command, args []string) string {
	if root == nil {
		return "voxworker"
	}

	target := root.CommandPath()
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return target
	}

	found, _, err := root.Find(args)
	if err == nil && found != nil {
		return found.CommandPath()
	}
	return target
}
