package modes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/retriever"
)

// TopicSuggestion is the parsed reply to the topic suggestion prompt.
type TopicSuggestion struct {
	Topic    string `json:"topic"`
	Sections []int  `json:"section_nums"`
	Angle    string `json:"angle"`
	Reason   string `json:"reason"`
}

var digitsRe = regexp.MustCompile(`\d+`)

func numbersIn(s string) []int {
	var out []int
	for _, m := range digitsRe.FindAllString(s, -1) {
		if n, err := strconv.Atoi(m); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// ParseSuggestion reads TOPIC, <LABEL>, SECTION, ANGLE and WHY lines.
// Missing fields stay empty.
func ParseSuggestion(reply, label string) TopicSuggestion {
	var s TopicSuggestion
	labelKey := strings.ToUpper(label) + ":"
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "TOPIC:"):
			s.Topic = strings.TrimSpace(line[len("TOPIC:"):])
		case strings.HasPrefix(upper, labelKey):
			s.Sections = numbersIn(line[len(labelKey):])
		case strings.HasPrefix(upper, "SECTION:"):
			s.Sections = numbersIn(line[len("SECTION:"):])
		case strings.HasPrefix(upper, "ANGLE:"):
			s.Angle = strings.TrimSpace(line[len("ANGLE:"):])
		case strings.HasPrefix(upper, "WHY:"):
			s.Reason = strings.TrimSpace(line[len("WHY:"):])
		}
	}
	return s
}

// botProposed lets the model pick the topic from the table of contents,
// or spotlights a random section.
type botProposed struct{}

func (botProposed) Name() string { return BotProposed }

func (botProposed) Plan(ctx context.Context, g *Generator, r *retriever.Retriever, req Request) (Plan, error) {
	if req.Spotlight || req.Featured {
		return spotlight(g, r, req.Featured), nil
	}

	data := g.baseData(r)
	data.TOC = r.TableOfContents()
	reply, err := g.ask(ctx, BotProposed, data, suggestionTemperature)
	if err != nil {
		return Plan{}, err
	}
	s := ParseSuggestion(reply, r.Label())
	s.Sections = existing(r, s.Sections)
	if len(s.Sections) == 0 {
		g.log.Warn("topic suggestion named no known sections, spotlighting one", "topic", s.Topic)
		p := spotlight(g, r, false)
		if s.Topic != "" {
			p.Topic = s.Topic
		}
		return p, nil
	}
	if s.Topic == "" {
		s.Topic = r.Context().DocumentShortName + " education"
	}
	if s.Angle == "" {
		s.Angle = "Educational overview"
	}
	return Plan{Topic: s.Topic, Angle: s.Angle, Reason: s.Reason, Sections: s.Sections}, nil
}

// spotlight picks a random section, from the featured chapter when asked
// and configured.
func spotlight(g *Generator, r *retriever.Retriever, featured bool) Plan {
	var pool []*document.Section
	if featured {
		pool = r.FeaturedSections()
	}
	s, _ := g.randomSection(r, pool)
	title := s.Title
	if title == "" {
		title = "A key provision"
	}
	return Plan{
		Topic:    fmt.Sprintf("Understanding %s: %s", s.Citation(r.Label()), title),
		Angle:    "Spotlight and plain-language explanation",
		Brief:    "Explain what this provision means in everyday terms and give a real-world example.",
		Sections: []int{s.Num},
	}
}
