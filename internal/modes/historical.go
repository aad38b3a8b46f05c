package modes

import (
	"context"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/retriever"
)

const maxHistoricalSections = 5

// historical ties a past event to the document. The model names the
// relevant sections; the catalog's related sections and then a topic search
// are the fallbacks.
type historical struct{}

func (historical) Name() string { return Historical }

func (historical) Plan(ctx context.Context, g *Generator, r *retriever.Retriever, req Request) (Plan, error) {
	event, related, err := resolveEvent(g, req)
	if err != nil {
		return Plan{}, err
	}

	data := g.baseData(r)
	data.TOC = r.TableOfContents()
	data.Event = event
	reply, err := g.ask(ctx, Historical, data, generationTemperature)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{Topic: event, Event: event}
	p.Sections = existing(r, numbersIn(reply))
	if len(p.Sections) == 0 {
		p.Sections = existing(r, related)
	}
	if len(p.Sections) == 0 {
		p.Sections = sectionNums(r.SectionsForTopic(event, maxHistoricalSections))
	}
	if len(p.Sections) > maxHistoricalSections {
		p.Sections = p.Sections[:maxHistoricalSections]
	}
	return p, nil
}

// resolveEvent picks the event text: a catalog match by name, the catalog
// events on EventDate (or today when nothing is given), or the free text.
func resolveEvent(g *Generator, req Request) (string, []int, error) {
	const op = "modes.historical"
	now := g.now()
	name := strings.TrimSpace(req.Event)

	if name != "" {
		if e, ok := g.events.ByName(name); ok {
			return e.Topic(now), e.RelatedSections, nil
		}
		return name, nil, nil
	}

	month, day := now.Month(), now.Day()
	if req.EventDate != "" {
		t, err := time.Parse("01-02", req.EventDate)
		if err != nil {
			return "", nil, errs.NewInvalidInput(op, "event_date must be MM-DD")
		}
		month, day = t.Month(), t.Day()
	}
	events := g.events.OnDate(month, day)
	if len(events) == 0 {
		e := errs.NewNotFound("event", req.EventDate)
		if req.EventDate == "" {
			e.Message = "no event given and none in the catalog for today"
		}
		return "", nil, e
	}
	return joinEvents(events, now)
}

func joinEvents(events []content.Event, now time.Time) (string, []int, error) {
	topics := make([]string, len(events))
	var related []int
	for i, e := range events {
		topics[i] = e.Topic(now)
		related = append(related, e.RelatedSections...)
	}
	return strings.Join(topics, "; "), related, nil
}
