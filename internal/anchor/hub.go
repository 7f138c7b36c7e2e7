package anchor

import (
	"regexp"

	"github.com/FOUEN/questpatch/internal/fragment"
)

// Anchor names.
const (
	HintCallName   = "hint-call"
	SageMethodName = "sage-method"
)

var (
	hintCallRe       = regexp.MustCompile(`(?m)^(?P<indent>[ \t]*)this\.updateHint\([^)]*\);`)
	returnCallRe     = regexp.MustCompile(`this\.` + fragment.MethodName + `\(\);`)
	sageMethodRe     = regexp.MustCompile(`(?m)^(?P<indent>[ \t]*)(?P<head>\})\s+updateSageMessage\(message\)\s*\{`)
	returnMethodDecl = regexp.MustCompile(`(?m)^[ \t]*` + fragment.MethodName + `\(\)\s*\{`)
)

// HintCall finds a `this.updateHint(...);` statement and follows it with the
// return button call and the completion notification.
func HintCall(r *fragment.Renderer) *Anchor {
	return &Anchor{
		Name:        HintCallName,
		Description: "Show the return button and notify the hub after the hint update",
		Pattern:     hintCallRe,
		Sentinel:    returnCallRe,
		Occurrence:  First,
		Fragment:    r.Notify,
	}
}

// SageMethod finds the method closing brace right before
// `updateSageMessage(message) {` and declares showReturnButton after it.
func SageMethod(r *fragment.Renderer) *Anchor {
	return &Anchor{
		Name:        SageMethodName,
		Description: "Declare showReturnButton() before updateSageMessage()",
		Pattern:     sageMethodRe,
		Sentinel:    returnMethodDecl,
		Occurrence:  First,
		Fragment:    r.ReturnButton,
	}
}
