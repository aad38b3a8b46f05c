package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/retriever"
)

// Insight perspectives.
const (
	PerspectiveExplainer   = "explainer"
	PerspectiveChallenger  = "challenger"
	PerspectiveContrast    = "contrast"
	PerspectiveStory       = "story"
	PerspectiveApplication = "application"
)

var perspectives = map[string]string{
	PerspectiveExplainer:   "explainer. Make the idea click for someone meeting it for the first time.",
	PerspectiveChallenger:  "challenger. Question a common assumption and show the tension the text has to resolve.",
	PerspectiveContrast:    "contrast. Set what the text promises against what people actually experience.",
	PerspectiveStory:       "story. Open with a short, concrete situation and let the provision answer it.",
	PerspectiveApplication: "application. Show how someone would use this provision in a real situation.",
}

type insight struct{}

func (insight) Name() string { return Insight }

func (insight) Plan(_ context.Context, g *Generator, r *retriever.Retriever, req Request) (Plan, error) {
	const op = "modes.insight"
	persp := strings.ToLower(strings.TrimSpace(req.Perspective))
	if persp == "" {
		persp = PerspectiveChallenger
	}
	brief, ok := perspectives[persp]
	if !ok {
		e := errs.NewInvalidInput(op, fmt.Sprintf("unknown perspective %q", req.Perspective))
		e.Details = map[string]any{"available": []string{PerspectiveExplainer, PerspectiveChallenger, PerspectiveContrast, PerspectiveStory, PerspectiveApplication}}
		return Plan{}, e
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Plan{}, errs.NewInvalidInput(op, "topic is required")
	}

	p := Plan{Topic: topic, Angle: persp, Brief: brief}
	if len(req.Sections) > 0 {
		p.Sections = existing(r, req.Sections)
	} else {
		p.Sections = sectionNums(r.SectionsForTopic(topic, 3))
	}
	return p, nil
}
