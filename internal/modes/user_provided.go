package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/retriever"
)

// Tasks for user_provided.
const (
	TaskExplain = "explain"
	TaskCompare = "compare"
	TaskFAQ     = "faq"
	TaskReply   = "reply"
)

var taskBriefs = map[string]string{
	TaskExplain: "Explain the provision in simple terms, give a real-world example and say why it matters.",
	TaskCompare: "Compare the provisions: where they agree, where they pull in different directions, and what that means in practice.",
	TaskFAQ:     "Answer the questions people most often ask about this, one question and answer at a time.",
	TaskReply:   "Reply helpfully to this message, citing provisions where relevant. If it asks for legal advice, redirect to professional counsel.",
}

const replyTemperature = 0.6

// userProvided generates from explicit section numbers or a topic.
type userProvided struct{}

func (userProvided) Name() string { return UserProvided }

func (userProvided) Plan(_ context.Context, g *Generator, r *retriever.Retriever, req Request) (Plan, error) {
	const op = "modes.user_provided"
	task := strings.ToLower(strings.TrimSpace(req.Task))
	brief, ok := taskBriefs[task]
	if task != "" && !ok {
		return Plan{}, errs.NewInvalidInput(op, fmt.Sprintf("unknown task %q", req.Task))
	}

	p := Plan{Topic: strings.TrimSpace(req.Topic), Brief: brief}
	if task == TaskReply {
		if strings.TrimSpace(req.Mention) == "" {
			return Plan{}, errs.NewInvalidInput(op, "reply needs the message being replied to")
		}
		p.Brief += "\n\nMessage: \"" + strings.TrimSpace(req.Mention) + "\""
		p.Temperature = llm.Temperature(replyTemperature)
		if p.Topic == "" {
			p.Topic = req.Mention
		}
	}

	switch {
	case len(req.Sections) > 0:
		for _, n := range req.Sections {
			if !r.InRange(n) {
				lo, hi := r.Document().SectionRange()
				e := errs.NewNotFound("section", n)
				e.Details["range"] = []int{lo, hi}
				return Plan{}, e
			}
		}
		p.Sections = existing(r, req.Sections)
		if len(p.Sections) == 0 {
			return Plan{}, errs.NewNotFound("section", req.Sections)
		}
		if task == TaskCompare && len(p.Sections) < 2 {
			return Plan{}, errs.NewInvalidInput(op, "compare needs at least two sections")
		}
		if p.Topic == "" {
			s, _ := r.Section(p.Sections[0])
			p.Topic = s.Citation(r.Label())
			if s.Title != "" {
				p.Topic += ": " + s.Title
			}
		}
	case p.Topic != "":
		p.Sections = sectionNums(r.SectionsForTopic(p.Topic, 3))
	default:
		return Plan{}, errs.NewInvalidInput(op, "a topic or section numbers are required")
	}
	return p, nil
}
