// Package config loads the hub profile: the values baked into the
// generated return-to-hub code.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes the hub the patched minigames return to.
//
// Example profile.yaml:
//
//	label: "🏠 Back to hub"
//	return_url: ../index.html
//	query_key: completed
//	hub_object: LinuxQuest
//	style:
//	  - "background: #222;"
//	  - "color: #fff;"
type Profile struct {
	Label     string   `yaml:"label"`
	ReturnURL string   `yaml:"return_url"`
	QueryKey  string   `yaml:"query_key"`
	HubObject string   `yaml:"hub_object"`
	Style     []string `yaml:"style"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// DefaultProfile returns the LinuxQuest hub settings.
func DefaultProfile() Profile {
	return Profile{
		Label:     "🏠 メインハブに戻る",
		ReturnURL: "../index.html",
		QueryKey:  "completed",
		HubObject: "LinuxQuest",
		Style: []string{
			"background: linear-gradient(45deg, #ff6b35, #ffd700);",
			"border: none;",
			"padding: 15px 30px;",
			"font-size: 1.2em;",
			"font-weight: bold;",
			"color: #000;",
			"border-radius: 25px;",
			"cursor: pointer;",
			"margin: 20px auto;",
			"display: block;",
			"animation: pulse 2s infinite;",
		},
	}
}

// LoadProfile reads a YAML profile from path. Keys absent from the file keep
// their default value. An empty path returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("could not open profile: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("could not parse profile %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks that every value can be spliced into JavaScript source.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ReturnURL) == "" {
		return errors.New("return_url must not be empty")
	}
	if !identRe.MatchString(p.QueryKey) {
		return fmt.Errorf("query_key %q is not a valid identifier", p.QueryKey)
	}
	if !identRe.MatchString(p.HubObject) {
		return fmt.Errorf("hub_object %q is not a valid identifier", p.HubObject)
	}
	for _, line := range p.Style {
		// style lines land inside a JS template literal
		if strings.Contains(line, "`") || strings.Contains(line, "${") {
			return fmt.Errorf("style line %q would break the template literal", line)
		}
	}
	return nil
}
