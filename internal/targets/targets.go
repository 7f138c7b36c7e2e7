// Package targets decides which minigame days get patched.
package targets

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultInput selects the minigames that ship without a return button.
const DefaultInput = "4,5,6,7"

const maxRange = 1000

// rule is a single selection rule (inclusion or exclusion).
type rule struct {
	from, to int
	exclude  bool
}

func (r rule) String() string {
	if r.from == r.to {
		return strconv.Itoa(r.from)
	}
	return fmt.Sprintf("%d-%d", r.from, r.to)
}

// Selection is the ordered set of day numbers to patch.
//
// Format (file, one or more rules per line, or a comma-separated string):
//
//	4,5,6,7     # explicit days
//	1-7         # inclusive range
//	-5          # exclude day 5
//	-2-3        # exclude days 2 and 3
type Selection struct {
	includes []rule
	excludes []rule
}

// Default returns the selection for DefaultInput.
func Default() *Selection {
	s, err := Load(DefaultInput)
	if err != nil {
		panic(err)
	}
	return s
}

// Load parses a selection which can be a file path or a direct string
// (comma-separated rules).
func Load(input string) (*Selection, error) {
	s := &Selection{}

	info, err := os.Stat(input)
	isFile := err == nil && !info.IsDir()

	if isFile {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("could not open targets file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			if err := s.processLine(scanner.Text()); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", input, line, err)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading targets file: %w", err)
		}
	} else if err := s.processLine(input); err != nil {
		return nil, err
	}

	if len(s.Days()) == 0 {
		return nil, fmt.Errorf("target selection %q selects no days", input)
	}
	return s, nil
}

func (s *Selection) processLine(line string) error {
	if idx := strings.Index(line, "#"); idx != -1 {
		line = line[:idx]
	}
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := parseRule(part)
		if err != nil {
			return err
		}
		if r.exclude {
			s.excludes = append(s.excludes, r)
		} else {
			s.includes = append(s.includes, r)
		}
	}
	return nil
}

func parseRule(part string) (rule, error) {
	r := rule{}
	body := part
	if strings.HasPrefix(body, "-") {
		r.exclude = true
		body = strings.TrimSpace(body[1:])
	}

	lo, hi, isRange := strings.Cut(body, "-")
	from, err := parseDay(lo)
	if err != nil {
		return rule{}, fmt.Errorf("invalid target %q: %w", part, err)
	}
	to := from
	if isRange {
		if to, err = parseDay(hi); err != nil {
			return rule{}, fmt.Errorf("invalid target %q: %w", part, err)
		}
		if to < from {
			return rule{}, fmt.Errorf("invalid target %q: range end before start", part)
		}
		if to-from >= maxRange {
			return rule{}, fmt.Errorf("invalid target %q: range wider than %d days", part, maxRange)
		}
	}
	r.from, r.to = from, to
	return r, nil
}

func parseDay(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a day number", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("day %d is negative", n)
	}
	return n, nil
}

// Days returns the selected day numbers in the order they were first
// included, without duplicates. Exclusions always take priority.
func (s *Selection) Days() []int {
	excluded := mapset.NewThreadUnsafeSet[int]()
	for _, r := range s.excludes {
		for d := r.from; d <= r.to; d++ {
			excluded.Add(d)
		}
	}

	seen := mapset.NewThreadUnsafeSet[int]()
	var days []int
	for _, r := range s.includes {
		for d := r.from; d <= r.to; d++ {
			if excluded.Contains(d) || !seen.Add(d) {
				continue
			}
			days = append(days, d)
		}
	}
	return days
}

// Contains reports whether day is selected.
func (s *Selection) Contains(day int) bool {
	for _, r := range s.excludes {
		if day >= r.from && day <= r.to {
			return false
		}
	}
	for _, r := range s.includes {
		if day >= r.from && day <= r.to {
			return true
		}
	}
	return false
}

// String returns a human-readable representation of the selection.
func (s *Selection) String() string {
	var sb strings.Builder
	sb.WriteString("Targets:\n")
	sb.WriteString("  Includes:\n")
	for _, r := range s.includes {
		sb.WriteString(fmt.Sprintf("    + %s\n", r))
	}
	if len(s.excludes) > 0 {
		sb.WriteString("  Excludes:\n")
		for _, r := range s.excludes {
			sb.WriteString(fmt.Sprintf("    - %s\n", r))
		}
	}
	return sb.String()
}
