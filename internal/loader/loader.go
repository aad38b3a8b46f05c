package loader

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/parser"
	"github.com/dgallion1/citegest/internal/strategy"
)

// Metadata is caller-supplied document information stamped onto the result.
type Metadata struct {
	Name         string   `json:"name" yaml:"name"`
	ShortName    string   `json:"short_name" yaml:"short_name"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	SectionLabel string   `json:"section_label,omitempty" yaml:"section_label"`
	Keywords     []string `json:"keywords,omitempty" yaml:"keywords"`
}

// Loader owns the strategy registry and assembles ParsedDocuments.
type Loader struct {
	log *slog.Logger

	// PDFFallback enables pdftotext when the Go PDF reader finds no text.
	PDFFallback bool

	mu         sync.RWMutex
	strategies map[string]strategy.Strategy
}

// New returns a Loader with the built-in strategies registered.
func New(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	l := &Loader{log: log, strategies: make(map[string]strategy.Strategy)}
	for _, s := range strategy.Builtins() {
		l.strategies[s.ID()] = s
	}
	return l
}

// Register adds or replaces a strategy.
func (l *Loader) Register(s strategy.Strategy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.strategies[s.ID()]; ok {
		l.log.Warn("replacing registered strategy", "strategy", s.ID())
	}
	l.strategies[s.ID()] = s
}

// Strategy returns a registered strategy.
func (l *Loader) Strategy(id string) (strategy.Strategy, error) {
	l.mu.RLock()
	s, ok := l.strategies[id]
	l.mu.RUnlock()
	if !ok {
		e := errs.NewConfiguration("loader.Load", fmt.Sprintf("unknown strategy %q", id))
		e.Details = map[string]any{"strategy": id, "available": l.StrategyIDs()}
		return nil, e
	}
	return s, nil
}

// StrategyIDs lists registered strategies in sorted order.
func (l *Loader) StrategyIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.strategies))
	for id := range l.strategies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Load parses raw text with the named strategy. It fails only for an
// unknown strategy; content problems are logged as degradations.
func (l *Loader) Load(raw, strategyID string, meta Metadata) (*document.ParsedDocument, error) {
	s, err := l.Strategy(strategyID)
	if err != nil {
		return nil, err
	}

	if meta.Name == "" {
		meta.Name = "Untitled"
	}
	doc, degraded := s.Parse(raw, strategy.Options{Title: meta.Name, Keywords: meta.Keywords})
	for _, d := range degraded {
		l.log.Warn("structural degradation",
			"document", meta.Name,
			"strategy", strategyID,
			"reason", d.Details["reason"],
			"line", d.Details["line"],
			"detail", d.Message,
		)
	}

	doc.Name = meta.Name
	doc.ShortName = meta.ShortName
	if doc.ShortName == "" {
		doc.ShortName = meta.Name
	}
	doc.Description = meta.Description
	doc.SectionLabel = meta.SectionLabel
	if doc.SectionLabel == "" {
		doc.SectionLabel = s.DefaultLabel()
	}

	l.log.Info("document loaded",
		"document", doc.Name,
		"strategy", strategyID,
		"chapters", doc.ChapterCount(),
		"sections", doc.SectionCount(),
		"degradations", len(degraded),
	)
	return doc, nil
}

// LoadFile extracts text from an uploaded file, then calls Load. The name
// defaults to the file's title. An unreadable file is the only content
// failure surfaced here.
func (l *Loader) LoadFile(r io.Reader, filename, strategyID string, meta Metadata) (*document.ParsedDocument, error) {
	if _, err := l.Strategy(strategyID); err != nil {
		return nil, err
	}
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, errs.NewInvalidInput("loader.LoadFile", err.Error())
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = l.PDFFallback
	}
	ext, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	if meta.Name == "" {
		meta.Name = ext.Title
	}
	return l.Load(ext.Text(), strategyID, meta)
}
