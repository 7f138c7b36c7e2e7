package patcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// previewContext is the number of unchanged lines shown around a change.
const previewContext = 2

type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

// Preview writes a unified-style line diff between before and after.
func Preview(w io.Writer, path, before, after string) {
	ops := lineDiff(before, after)

	fmt.Fprintf(w, "--- %s\n+++ %s (patched)\n", path, path)

	show := make([]bool, len(ops))
	for i, o := range ops {
		if o.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := i - previewContext; j <= i+previewContext; j++ {
			if j >= 0 && j < len(ops) {
				show[j] = true
			}
		}
	}

	oldLine, newLine := 1, 1
	inHunk := false
	for i, o := range ops {
		if !show[i] {
			inHunk = false
		} else {
			if !inHunk {
				fmt.Fprintf(w, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}
			switch o.op {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintf(w, "+%s\n", o.text)
			case diffmatchpatch.DiffDelete:
				fmt.Fprintf(w, "-%s\n", o.text)
			default:
				fmt.Fprintf(w, " %s\n", o.text)
			}
		}

		switch o.op {
		case diffmatchpatch.DiffInsert:
			newLine++
		case diffmatchpatch.DiffDelete:
			oldLine++
		default:
			oldLine++
			newLine++
		}
	}
}

// lineDiff flattens a line-mode diff into one op per line.
func lineDiff(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			ops = append(ops, lineOp{op: d.Type, text: strings.TrimSuffix(l, "\n")})
		}
	}
	return ops
}
