package cli

import (
	"fmt"
	"io"

	"github.com/FOUEN/questpatch/internal/anchor"
	"github.com/FOUEN/questpatch/internal/config"
	"github.com/FOUEN/questpatch/internal/fragment"
)

// PrintUsage prints the top-level help message.
func PrintUsage(out io.Writer) {
	fmt.Fprintln(out, "questpatch — adds the return-to-hub button to LinuxQuest minigames")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: questpatch [command] [flags]")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  patch        Patch the selected minigame scripts in place (default)")
	fmt.Fprintln(out, "  check        Report what patch would do without writing anything")
	fmt.Fprintln(out, "  help         Show this message")
	fmt.Fprintln(out)

	if r, err := fragment.NewRenderer(config.DefaultProfile()); err == nil {
		fmt.Fprintln(out, "Anchors:")
		for _, a := range anchor.Default(r).List() {
			fmt.Fprintf(out, "  %-12s %s\n", a.Name, a.Description)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Run 'questpatch patch -h' to see all flags.")
}
