// Package yaml loads adsift configuration files.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fwojciec/adsift"
	"gopkg.in/yaml.v3"
)

// Config is the file configuration. Zero values mean "use the default".
type Config struct {
	Selectors      SelectorsConfig `yaml:"selectors"`
	Browser        BrowserConfig   `yaml:"browser"`
	HealInterval   time.Duration   `yaml:"heal_interval"`
	ResolveTimeout time.Duration   `yaml:"resolve_timeout"`
	ResolverRate   float64         `yaml:"resolver_rate"`
	ExportDir      string          `yaml:"export_dir"`
	ExportEvery    time.Duration   `yaml:"export_every"`
}

// SelectorsConfig overrides individual selectors of the feed markup.
type SelectorsConfig struct {
	Card           string `yaml:"card"`
	Headline       string `yaml:"headline"`
	ClickThrough   string `yaml:"click_through"`
	Anchor         string `yaml:"anchor"`
	Image          string `yaml:"image"`
	ImageFallback  string `yaml:"image_fallback"`
	Candidates     string `yaml:"candidates"`
	VerifiedMarker string `yaml:"verified_marker"`
	AdMarker       string `yaml:"ad_marker"`
	Bar            string `yaml:"bar"`
	Container      string `yaml:"container"`
	Section        string `yaml:"section"`
	ControlID      string `yaml:"control_id"`
}

// BrowserConfig controls the Chrome instance used by watch.
type BrowserConfig struct {
	Remote   string `yaml:"remote"` // DevTools URL of an existing browser
	Headful  bool   `yaml:"headful"`
	MaxPages int64  `yaml:"max_pages"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, adsift.Errorf(adsift.ENOTFOUND, "config file %s not found", path)
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeConfig(f)
}

// DecodeConfig parses configuration from r. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, adsift.Errorf(adsift.EINVALID, "parsing config: %v", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate returns an error if a value is out of range.
func (c *Config) Validate() error {
	switch {
	case c.HealInterval < 0:
		return adsift.Errorf(adsift.EINVALID, "heal_interval must not be negative")
	case c.ResolveTimeout < 0:
		return adsift.Errorf(adsift.EINVALID, "resolve_timeout must not be negative")
	case c.ExportEvery < 0:
		return adsift.Errorf(adsift.EINVALID, "export_every must not be negative")
	case c.ResolverRate < 0:
		return adsift.Errorf(adsift.EINVALID, "resolver_rate must not be negative")
	case c.Browser.MaxPages < 0:
		return adsift.Errorf(adsift.EINVALID, "browser.max_pages must not be negative")
	}
	return nil
}

// ApplySelectors returns base with the configured selectors applied on top.
func (c *Config) ApplySelectors(base adsift.Selectors) (adsift.Selectors, error) {
	s := c.Selectors
	merged := base.Merge(adsift.Selectors{
		Card:           s.Card,
		Headline:       s.Headline,
		ClickThrough:   s.ClickThrough,
		Anchor:         s.Anchor,
		Image:          s.Image,
		ImageFallback:  s.ImageFallback,
		Candidates:     s.Candidates,
		VerifiedMarker: s.VerifiedMarker,
		AdMarker:       s.AdMarker,
		Bar:            s.Bar,
		Container:      s.Container,
		Section:        s.Section,
		ControlID:      s.ControlID,
	})
	if err := merged.Validate(); err != nil {
		return adsift.Selectors{}, err
	}
	return merged, nil
}
