// Package anchor locates structural insertion points in script source and
// splices generated fragments in at them.
package anchor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Outcome is what happened when an anchor was applied to a document.
type Outcome int

const (
	NotFound Outcome = iota
	Applied
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyPresent:
		return "already present"
	default:
		return "not found"
	}
}

// Occurrence selects which matches receive a fragment when the pattern
// matches more than once.
type Occurrence int

const (
	First Occurrence = iota
	Last
	All
)

func (o Occurrence) String() string {
	switch o {
	case Last:
		return "last"
	case All:
		return "all"
	default:
		return "first"
	}
}

// ParseOccurrence converts "first", "last" or "all" into an Occurrence.
func ParseOccurrence(s string) (Occurrence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return First, nil
	case "last":
		return Last, nil
	case "all":
		return All, nil
	}
	return First, fmt.Errorf("unknown match policy %q (want first, last or all)", s)
}

// FragmentFunc generates the text inserted at an anchor. indent is the
// leading whitespace of the anchor line.
type FragmentFunc func(day int, indent string) (string, error)

// Anchor pairs a matcher with an insertion strategy.
//
// Pattern may define two named groups:
//   - "indent": leading whitespace handed to Fragment
//   - "head":   the fragment is inserted right after this group instead of
//     after the whole match
type Anchor struct {
	Name        string
	Description string
	Pattern     *regexp.Regexp
	// Sentinel matches text the fragment leaves behind. A document that
	// already matches it is reported as AlreadyPresent.
	Sentinel   *regexp.Regexp
	Occurrence Occurrence
	Fragment   FragmentFunc
}

// Result reports how one anchor fared against one document.
type Result struct {
	Anchor  string
	Outcome Outcome
	// Matches is the number of pattern matches in the original document.
	Matches int
	// Offsets are the byte offsets (in the original document) where
	// fragments were inserted.
	Offsets []int
}

// Apply splices the fragment for day into doc at the selected matches.
// When force is false and the sentinel already matches, doc is returned
// unchanged. Text outside the insertion points is never modified.
func (a *Anchor) Apply(doc string, day int, force bool) (string, Result, error) {
	res := Result{Anchor: a.Name}

	locs := a.Pattern.FindAllStringSubmatchIndex(doc, -1)
	res.Matches = len(locs)

	if !force && a.Sentinel != nil && a.Sentinel.MatchString(doc) {
		res.Outcome = AlreadyPresent
		return doc, res, nil
	}
	if len(locs) == 0 {
		res.Outcome = NotFound
		return doc, res, nil
	}

	switch a.Occurrence {
	case First:
		locs = locs[:1]
	case Last:
		locs = locs[len(locs)-1:]
	}

	type splice struct {
		at   int
		text string
	}
	splices := make([]splice, 0, len(locs))
	for _, loc := range locs {
		indent := a.group(doc, loc, "indent")
		frag, err := a.Fragment(day, indent)
		if err != nil {
			return doc, res, fmt.Errorf("anchor %s: %w", a.Name, err)
		}
		at := a.insertionPoint(loc)
		if lineEnding(doc, at) == "\r\n" {
			frag = strings.ReplaceAll(frag, "\n", "\r\n")
		}
		splices = append(splices, splice{at: at, text: frag})
	}

	// back to front so earlier offsets stay valid
	sort.Slice(splices, func(i, j int) bool { return splices[i].at > splices[j].at })
	out := doc
	for _, s := range splices {
		out = out[:s.at] + s.text + out[s.at:]
		res.Offsets = append(res.Offsets, s.at)
	}
	sort.Ints(res.Offsets)

	res.Outcome = Applied
	return out, res, nil
}

func (a *Anchor) group(doc string, loc []int, name string) string {
	i := a.Pattern.SubexpIndex(name)
	if i < 0 || loc[2*i] < 0 {
		return ""
	}
	return doc[loc[2*i]:loc[2*i+1]]
}

func (a *Anchor) insertionPoint(loc []int) int {
	if i := a.Pattern.SubexpIndex("head"); i >= 0 && loc[2*i+1] >= 0 {
		return loc[2*i+1]
	}
	return loc[1]
}

// lineEnding returns the terminator of the line holding offset at.
func lineEnding(doc string, at int) string {
	i := strings.IndexByte(doc[at:], '\n')
	if i > 0 && doc[at+i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
