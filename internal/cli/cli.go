// Package cli implements the questpatch command-line interface.
// It routes subcommands to the appropriate handler.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Run is the main entry point for the CLI. It parses os.Args, dispatches and
// exits with a non-zero status only on configuration or I/O errors.
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Execute(ctx, os.Args[1:], os.Stdout)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// Execute runs one command with args (without the program name) and returns
// the process exit code.
func Execute(ctx context.Context, args []string, out io.Writer) int {
	if len(args) == 0 {
		return RunPatch(ctx, nil, out)
	}

	command := args[0]

	switch {
	case command == "patch":
		return RunPatch(ctx, args[1:], out)
	case command == "check":
		return RunCheck(ctx, args[1:], out)
	case command == "help":
		PrintUsage(out)
		return 0
	case strings.HasPrefix(command, "-"):
		// bare flags run the default command
		return RunPatch(ctx, args, out)
	default:
		fmt.Fprintf(out, "Unknown command: %s\n", command)
		PrintUsage(out)
		return 1
	}
}
