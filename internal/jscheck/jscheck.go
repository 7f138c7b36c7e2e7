// Package jscheck reports JavaScript syntax errors using tree-sitter.
package jscheck

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Result describes the first syntax problem found, if any.
// Line and Column are 1-based and zero when OK is true.
type Result struct {
	OK     bool
	Line   int
	Column int
	Kind   string // "error" or "missing"
}

func (r Result) String() string {
	if r.OK {
		return "ok"
	}
	return fmt.Sprintf("%s at %d:%d", r.Kind, r.Line, r.Column)
}

// Checker wraps a tree-sitter parser configured for JavaScript.
// It is not safe for concurrent use.
type Checker struct {
	parser *sitter.Parser
}

// NewChecker creates a JavaScript syntax checker.
func NewChecker() *Checker {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return &Checker{parser: p}
}

// Close releases the underlying parser.
func (c *Checker) Close() {
	c.parser.Close()
}

// Check parses src and returns the position of the first ERROR or MISSING
// node in document order.
func (c *Checker) Check(ctx context.Context, src []byte) (Result, error) {
	tree, err := c.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return Result{}, fmt.Errorf("javascript parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return Result{OK: true}, nil
	}

	if n := firstProblem(root); n != nil {
		kind := "error"
		if n.IsMissing() {
			kind = "missing"
		}
		pt := n.StartPoint()
		return Result{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Kind: kind}, nil
	}
	return Result{Line: 1, Column: 1, Kind: "error"}, nil
}

func firstProblem(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstProblem(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
