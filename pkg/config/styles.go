package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholders understood in style URL templates.
const (
	PlaceholderShard = "{s}"
	PlaceholderZoom  = "{z}"
	PlaceholderX     = "{x}"
	PlaceholderY     = "{y}"
	PlaceholderToken = "{token}"
)

// Style describes one upstream tile provider.
type Style struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Referer     bool   `yaml:"referer"`
	Token       string `yaml:"token"`
	Attribution string `yaml:"attribution"`
}

// NeedsToken reports whether the URL template embeds an access token.
func (s Style) NeedsToken() bool {
	return strings.Contains(s.URL, PlaceholderToken)
}

type stylesFile struct {
	Styles []Style `yaml:"styles"`
}

func DefaultStyles() []Style {
	return []Style{
		{
			Name:        "_",
			URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Referer:     true,
			Attribution: "© OpenStreetMap contributors",
		},
		{
			Name:        "transportdark",
			URL:         "https://{s}.tile.thunderforest.com/transport-dark/{z}/{x}/{y}.png?apikey={token}",
			Attribution: "© Thunderforest, © OpenStreetMap contributors",
		},
		{
			Name:        "matrix",
			URL:         "https://{s}.tile.jawg.io/jawg-matrix/{z}/{x}/{y}.png?access-token={token}",
			Attribution: "© JawgMaps, © OpenStreetMap contributors",
		},
	}
}

func LoadStyles(path string) ([]Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseStyles(data)
}

func ParseStyles(data []byte) ([]Style, error) {
	var f stylesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}
	if len(f.Styles) == 0 {
		return nil, fmt.Errorf("styles file defines no styles")
	}
	return f.Styles, nil
}
