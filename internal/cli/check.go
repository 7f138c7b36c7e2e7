package cli

import (
	"context"
	"fmt"
	"io"
)

// RunCheck handles "questpatch check [flags]". It reports the outcome of
// every anchor for every target without writing or printing diffs.
func RunCheck(ctx context.Context, args []string, out io.Writer) int {
	f, err := parsePatchFlags("check", args)
	if err != nil {
		fmt.Fprintf(out, "[!] %s\n", err)
		return 1
	}
	f.dryRun = true
	return runPatcher(ctx, f, out, false)
}
