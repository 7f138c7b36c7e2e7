// Package fragment renders the JavaScript snippets spliced into minigame
// scripts. Templates live in templates/ and are written at column zero;
// callers pass the indentation of the anchor they are inserted at.
package fragment

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/FOUEN/questpatch/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	notifyTemplate = "notify.js.tmpl"
	buttonTemplate = "return_button.js.tmpl"
)

// Method and call names emitted by the templates. Anchors use them to detect
// scripts that were already patched.
const (
	MethodName = "showReturnButton"
	NotifyCall = "markDayCompleted"
)

// Renderer produces fragments for one hub profile.
type Renderer struct {
	profile config.Profile
	tmpl    *template.Template
}

type data struct {
	Day        int
	Method     string
	NotifyCall string
	Label      string
	ReturnURL  string
	Separator  string
	QueryKey   string
	Hash       string
	HubObject  string
	Style      []string
}

// NewRenderer parses the embedded templates for the given profile.
func NewRenderer(p config.Profile) (*Renderer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.New("fragment").
		Funcs(template.FuncMap{"quote": quote}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("could not parse fragment templates: %w", err)
	}
	return &Renderer{profile: p, tmpl: tmpl}, nil
}

// Notify renders the block that goes after the hint-update call: a blank
// line, the return button call and the guarded completion notification.
func (r *Renderer) Notify(day int, indent string) (string, error) {
	block, err := r.render(notifyTemplate, day)
	if err != nil {
		return "", err
	}
	return "\n\n" + Indent(block, indent), nil
}

// ReturnButton renders the showReturnButton method, preceded by a blank line.
func (r *Renderer) ReturnButton(day int, indent string) (string, error) {
	method, err := r.render(buttonTemplate, day)
	if err != nil {
		return "", err
	}
	return "\n\n" + Indent(method, indent), nil
}

func (r *Renderer) render(name string, day int) (string, error) {
	// the completion query goes before any #fragment
	url, hash := r.profile.ReturnURL, ""
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url, hash = url[:i], url[i:]
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	d := data{
		Day:        day,
		Method:     MethodName,
		NotifyCall: NotifyCall,
		Label:      r.profile.Label,
		ReturnURL:  url,
		Separator:  sep,
		QueryKey:   r.profile.QueryKey,
		Hash:       hash,
		HubObject:  r.profile.HubObject,
		Style:      r.profile.Style,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, d); err != nil {
		return "", fmt.Errorf("could not render %s for day %d: %w", name, day, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Indent prefixes every non-empty line of s with indent.
func Indent(s, indent string) string {
	if indent == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// quote escapes s for use inside a single-quoted JavaScript string.
func quote(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
		"\u2028", `\u2028`,
		"\u2029", `\u2029`,
	)
	return r.Replace(s)
}
