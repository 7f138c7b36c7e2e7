// Package patcher adds the return-to-hub button to minigame scripts.
// For every selected day it resolves the script path, applies each anchor
// in order and writes the result back in place.
package patcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/FOUEN/questpatch/internal/anchor"
	"github.com/FOUEN/questpatch/internal/jscheck"
)

// DefaultPathTemplate maps a day number to its script. "{day}" is replaced
// by the number.
const DefaultPathTemplate = "day{day}-minigame/script.js"

// ErrMissingTarget is returned by Load when the script does not exist.
var ErrMissingTarget = errors.New("target not found")

// Options controls a patch run.
type Options struct {
	Root         string // directory holding the dayN-minigame folders
	PathTemplate string
	DryRun       bool // never write
	Preview      bool // print a line diff of each change
	Force        bool // insert even when the fragment is already there
	Verify       bool // refuse patches that break JavaScript syntax
	Out          io.Writer
}

// Target is a resolved minigame script.
type Target struct {
	Day  int
	Path string
}

// Report is the outcome of patching one target.
type Report struct {
	Target  Target
	Missing bool
	Results []anchor.Result
	Changed bool
	Written bool
	// Syntax is set when verification rejected the patched script.
	Syntax *jscheck.Result
}

// AlreadyPatched reports whether every anchor found its fragment in place.
func (r Report) AlreadyPatched() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Outcome != anchor.AlreadyPresent {
			return false
		}
	}
	return true
}

// Failed reports whether the target could not be patched.
func (r Report) Failed() bool {
	return r.Missing || r.Syntax != nil
}

// Summary aggregates the reports of a run.
type Summary struct {
	Patched   []int
	Unchanged []int
	Missing   []int
	Failed    []int
}

// Patcher applies an anchor set to minigame scripts.
type Patcher struct {
	opts    Options
	anchors *anchor.Set
	checker *jscheck.Checker
}

// New returns a Patcher. Call Close when done.
func New(anchors *anchor.Set, opts Options) *Patcher {
	if opts.PathTemplate == "" {
		opts.PathTemplate = DefaultPathTemplate
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	p := &Patcher{opts: opts, anchors: anchors}
	if opts.Verify {
		p.checker = jscheck.NewChecker()
	}
	return p
}

// Close releases the syntax checker, if any.
func (p *Patcher) Close() {
	if p.checker != nil {
		p.checker.Close()
	}
}

// Resolve maps a day number to its script path.
func (p *Patcher) Resolve(day int) Target {
	rel := strings.ReplaceAll(p.opts.PathTemplate, "{day}", strconv.Itoa(day))
	path := filepath.FromSlash(rel)
	if p.opts.Root != "" && p.opts.Root != "." && !filepath.IsAbs(path) {
		path = filepath.Join(p.opts.Root, path)
	}
	return Target{Day: day, Path: path}
}

// Load reads the whole script as UTF-8 text.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingTarget, path)
		}
		return "", fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	return string(data), nil
}

// Save overwrites path with doc, keeping the file's permission bits.
func Save(path, doc string) error {
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(doc), mode); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// Apply runs every anchor over doc in order.
func (p *Patcher) Apply(doc string, day int) (string, []anchor.Result, error) {
	results := make([]anchor.Result, 0, len(p.anchors.Names()))
	for _, a := range p.anchors.List() {
		var res anchor.Result
		var err error
		doc, res, err = a.Apply(doc, day, p.opts.Force)
		if err != nil {
			return "", nil, err
		}
		gologger.Debug().Msgf("day %d: %s %s (matches=%d offsets=%v)", day, a.Name, res.Outcome, res.Matches, res.Offsets)
		results = append(results, res)
	}
	return doc, results, nil
}

// PatchTarget patches a single day. A missing script is reported, not
// returned as an error. Write failures are returned.
func (p *Patcher) PatchTarget(ctx context.Context, day int) (Report, error) {
	t := p.Resolve(day)
	rep := Report{Target: t}
	gologger.Debug().Msgf("day %d: resolved to %s", day, t.Path)

	before, err := Load(t.Path)
	if errors.Is(err, ErrMissingTarget) {
		rep.Missing = true
		return rep, nil
	}
	if err != nil {
		return rep, err
	}

	after, results, err := p.Apply(before, day)
	if err != nil {
		return rep, err
	}
	rep.Results = results
	rep.Changed = after != before
	if !rep.Changed {
		return rep, nil
	}

	if p.checker != nil {
		bad, err := p.syntaxRegression(ctx, before, after)
		if err != nil {
			return rep, err
		}
		if bad != nil {
			rep.Syntax = bad
			return rep, nil
		}
	}

	if p.opts.Preview {
		Preview(p.opts.Out, t.Path, before, after)
	}
	if p.opts.DryRun {
		return rep, nil
	}

	if err := Save(t.Path, after); err != nil {
		return rep, err
	}
	rep.Written = true
	return rep, nil
}

// syntaxRegression returns the first syntax problem of after when before
// parsed cleanly. Scripts that were already broken are not judged.
func (p *Patcher) syntaxRegression(ctx context.Context, before, after string) (*jscheck.Result, error) {
	orig, err := p.checker.Check(ctx, []byte(before))
	if err != nil {
		return nil, err
	}
	if !orig.OK {
		gologger.Debug().Msgf("original script already has a syntax problem (%s), skipping verification", orig)
		return nil, nil
	}
	patched, err := p.checker.Check(ctx, []byte(after))
	if err != nil {
		return nil, err
	}
	if patched.OK {
		return nil, nil
	}
	return &patched, nil
}

// Run patches every day in order, printing a status line per target. The
// closing banner is always printed. A write failure stops the run and is
// returned; earlier targets stay patched.
func (p *Patcher) Run(ctx context.Context, days []int) (Summary, error) {
	var sum Summary
	w := p.opts.Out

	fmt.Fprintf(w, "🔧 Adding return-to-hub buttons to day %s minigames...\n", joinDays(days))
	defer printBanner(w, &sum, p.opts.DryRun)

	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		rep, err := p.PatchTarget(ctx, day)
		if err != nil {
			fmt.Fprintf(w, "❌ Day%d: %s\n", day, err)
			sum.Failed = append(sum.Failed, day)
			return sum, err
		}
		p.report(rep)

		switch {
		case rep.Missing:
			sum.Missing = append(sum.Missing, day)
		case rep.Failed():
			sum.Failed = append(sum.Failed, day)
		case rep.Changed:
			sum.Patched = append(sum.Patched, day)
		default:
			sum.Unchanged = append(sum.Unchanged, day)
		}
	}
	return sum, nil
}

func (p *Patcher) report(rep Report) {
	w := p.opts.Out
	t := rep.Target

	switch {
	case rep.Missing:
		fmt.Fprintf(w, "⚠️ %s not found\n", t.Path)
		fmt.Fprintf(w, "❌ Day%d: patch failed\n", t.Day)
		return
	case rep.Syntax != nil:
		fmt.Fprintf(w, "❌ Day%d: patched %s would not parse (%s), left untouched\n", t.Day, t.Path, rep.Syntax)
	case rep.Changed && p.opts.DryRun:
		fmt.Fprintf(w, "🔎 Day%d: would patch %s\n", t.Day, t.Path)
	case rep.Changed:
		fmt.Fprintf(w, "✅ Day%d: return-to-hub button added to %s\n", t.Day, t.Path)
	case rep.AlreadyPatched():
		fmt.Fprintf(w, "⏭️ Day%d: %s is already patched\n", t.Day, t.Path)
	default:
		fmt.Fprintf(w, "⚠️ Day%d: no anchors found in %s\n", t.Day, t.Path)
	}

	for _, res := range rep.Results {
		fmt.Fprintf(w, "    - %-12s %s\n", res.Anchor, res.Outcome)
	}
}

func printBanner(w io.Writer, sum *Summary, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "🎉 Dry run complete, no files were written!")
	} else {
		fmt.Fprintln(w, "🎉 All patches finished!")
	}
	fmt.Fprintf(w, "   patched: %d, unchanged: %d, missing: %d, failed: %d\n",
		len(sum.Patched), len(sum.Unchanged), len(sum.Missing), len(sum.Failed))
}

func joinDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ", ")
}
