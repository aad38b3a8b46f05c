package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/retriever"
	"github.com/dgallion1/citegest/internal/strategy"
)

// CustomStrategy is a manifest entry compiled by strategy.NewCustom.
type CustomStrategy struct {
	ID       string                  `yaml:"id"`
	Label    string                  `yaml:"label"`
	Patterns strategy.CustomPatterns `yaml:"patterns"`
}

// Manifest describes one document: its metadata, retrieval settings,
// extra strategies and event catalog.
//
//	document:
//	  name: Constitution of X
//	  section_label: Section
//	strategy: chapter_section
//	featured_chapter: 2
//	default_hashtags: ["#ConstitutionOfX"]
//	topic_keywords:
//	  courts: [court, judge]
//	events:
//	  - date: "1996-12-10"
//	    name: Signing Day
//	    related_sections: [1, 2]
type Manifest struct {
	Document   loader.Metadata  `yaml:"document"`
	Strategy   string           `yaml:"strategy"`
	Strategies []CustomStrategy `yaml:"strategies"`
	Events     []content.Event  `yaml:"events"`

	retriever.Config `yaml:",inline"`
}

// LoadManifest reads a YAML manifest. An empty path yields an empty
// manifest.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{}
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errs.NewConfiguration("config.LoadManifest", fmt.Sprintf("parse %s: %s", path, err))
	}
	return m, nil
}

// Register compiles the manifest's custom strategies into l.
func (m *Manifest) Register(l *loader.Loader) error {
	for _, cs := range m.Strategies {
		s, err := strategy.NewCustom(cs.ID, cs.Label, cs.Patterns)
		if err != nil {
			return err
		}
		l.Register(s)
	}
	return nil
}

// Catalog validates the manifest's events.
func (m *Manifest) Catalog() (*content.Catalog, error) {
	return content.NewCatalog(m.Events)
}
