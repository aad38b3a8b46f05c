package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/retriever"
)

// Commentary kinds.
const (
	KindAnalysis     = "analysis"
	KindMythBuster   = "myth_buster"
	KindImplications = "implications"
	KindCritical     = "critical"
	KindComparison   = "comparison"
	KindFAQ          = "faq"
)

var commentaryKinds = map[string]string{
	KindAnalysis:     "Analyse what the provisions establish, how they fit together and where their limits are.",
	KindMythBuster:   "Name a common misconception about this topic and correct it with what the text actually says.",
	KindImplications: "Work through the practical implications for ordinary people, institutions and the state.",
	KindCritical:     "Examine the topic critically: gaps, tensions and open questions, fairly and without taking sides.",
	KindComparison:   "Compare how the provisions treat this topic and what their differences mean.",
	KindFAQ:          "Answer the most common questions about this topic, one at a time.",
}

const (
	commentarySections   = 3
	analysisSections     = 5
	deepAnalysisSections = 7
)

type commentary struct{}

func (commentary) Name() string { return Commentary }

func (commentary) Plan(_ context.Context, g *Generator, r *retriever.Retriever, req Request) (Plan, error) {
	const op = "modes.commentary"
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = KindAnalysis
	}
	brief, ok := commentaryKinds[kind]
	if !ok {
		return Plan{}, errs.NewInvalidInput(op, fmt.Sprintf("unknown commentary kind %q", req.Kind))
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Plan{}, errs.NewInvalidInput(op, "topic is required")
	}

	limit := commentarySections
	if kind == KindAnalysis {
		limit = analysisSections
		if req.Deep {
			limit = deepAnalysisSections
		}
	}
	p := Plan{Topic: topic, Angle: kind, Brief: brief}
	if len(req.Sections) > 0 {
		p.Sections = existing(r, req.Sections)
	} else {
		p.Sections = sectionNums(r.SectionsForTopic(topic, limit))
	}
	return p, nil
}
