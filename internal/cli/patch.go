package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"

	"github.com/FOUEN/questpatch/internal/anchor"
	"github.com/FOUEN/questpatch/internal/config"
	"github.com/FOUEN/questpatch/internal/fragment"
	"github.com/FOUEN/questpatch/internal/patcher"
	"github.com/FOUEN/questpatch/internal/targets"
)

// patchFlags holds the parsed flags shared by patch and check.
type patchFlags struct {
	root         string
	targets      string
	pathTemplate string
	profile      string
	anchors      goflags.StringSlice
	hintMatch    string
	dryRun       bool
	force        bool
	noVerify     bool
	verbose      bool
	silent       bool
}

// RunPatch handles "questpatch patch [flags]", the default command.
func RunPatch(ctx context.Context, args []string, out io.Writer) int {
	f, err := parsePatchFlags("patch", args)
	if err != nil {
		fmt.Fprintf(out, "[!] %s\n", err)
		return 1
	}
	return runPatcher(ctx, f, out, f.dryRun)
}

func parsePatchFlags(command string, args []string) (patchFlags, error) {
	var f patchFlags

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(fmt.Sprintf("questpatch %s adds the return-to-hub button to minigame scripts.", command))

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&f.root, "root", "r", ".", "directory holding the dayN-minigame folders"),
		flagSet.StringVarP(&f.targets, "targets", "t", targets.DefaultInput, "days to patch (list like 4,5,6-7,-5 or a file)"),
		flagSet.StringVar(&f.pathTemplate, "path-template", patcher.DefaultPathTemplate, "script path relative to root, {day} is replaced"),
	)
	flagSet.CreateGroup("patch", "Patch",
		flagSet.StringVarP(&f.profile, "profile", "p", "", "YAML hub profile (label, return_url, query_key, hub_object, style)"),
		flagSet.StringSliceVarP(&f.anchors, "anchor", "a", nil, "anchors to apply (hint-call,sage-method)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVar(&f.hintMatch, "hint-match", "first", "which updateHint calls get the notification (first, last, all)"),
		flagSet.BoolVar(&f.force, "force", false, "insert fragments even if the script is already patched"),
		flagSet.BoolVar(&f.noVerify, "no-verify", false, "skip the JavaScript syntax check of patched scripts"),
	)
	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&f.dryRun, "dry-run", "n", false, "print a diff instead of writing files"),
		flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "show anchor matches and resolved paths"),
		flagSet.BoolVar(&f.silent, "silent", false, "print nothing but errors"),
	)

	if err := flagSet.Parse(args...); err != nil {
		return f, fmt.Errorf("could not parse flags: %w", err)
	}
	return f, nil
}

// runPatcher builds the pipeline from flags and runs it over the selection.
// With dryRun no file is written; preview prints diffs of what would change.
func runPatcher(ctx context.Context, f patchFlags, out io.Writer, preview bool) int {
	configureLogging(f.verbose, f.silent)
	errOut := out
	if f.silent {
		out = io.Discard
	}

	sel, err := targets.Load(f.targets)
	if err != nil {
		fmt.Fprintf(errOut, "[!] Targets error: %s\n", err)
		return 1
	}
	gologger.Debug().Msgf("selected days: %v", sel.Days())

	profile, err := config.LoadProfile(f.profile)
	if err != nil {
		fmt.Fprintf(errOut, "[!] Profile error: %s\n", err)
		return 1
	}
	if f.profile != "" {
		gologger.Debug().Msgf("using hub profile %s", f.profile)
	}

	renderer, err := fragment.NewRenderer(profile)
	if err != nil {
		fmt.Fprintf(errOut, "[!] Profile error: %s\n", err)
		return 1
	}

	set, err := buildAnchors(renderer, f.anchors, f.hintMatch)
	if err != nil {
		fmt.Fprintf(errOut, "[!] Anchor error: %s\n", err)
		return 1
	}

	p := patcher.New(set, patcher.Options{
		Root:         f.root,
		PathTemplate: f.pathTemplate,
		DryRun:       f.dryRun,
		Preview:      preview,
		Force:        f.force,
		Verify:       !f.noVerify,
		Out:          out,
	})
	defer p.Close()

	if _, err := p.Run(ctx, sel.Days()); err != nil {
		gologger.Error().Msgf("patch run aborted: %s", err)
		if f.silent {
			fmt.Fprintf(errOut, "[!] Patch error: %s\n", err)
		}
		return 1
	}
	return 0
}

func buildAnchors(r *fragment.Renderer, names []string, hintMatch string) (*anchor.Set, error) {
	set, err := anchor.Default(r).Select(names)
	if err != nil {
		return nil, err
	}
	occ, err := anchor.ParseOccurrence(hintMatch)
	if err != nil {
		return nil, err
	}
	if _, err := set.Get(anchor.HintCallName); err == nil {
		if err := set.SetOccurrence(anchor.HintCallName, occ); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func configureLogging(verbose, silent bool) {
	switch {
	case silent:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelError)
	case verbose:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	default:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelInfo)
	}
}
