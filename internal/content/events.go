package content

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
)

// Event is a dated occurrence that historical content can be pegged to.
// Date is "MM-DD" for a recurring date or "YYYY-MM-DD" when the year is
// known.
type Event struct {
	Date            string `yaml:"date" json:"date"`
	Name            string `yaml:"name" json:"name"`
	Description     string `yaml:"description" json:"description,omitempty"`
	RelatedSections []int  `yaml:"related_sections" json:"related_sections,omitempty"`
	Significance    string `yaml:"significance" json:"significance,omitempty"`

	year  int
	month time.Month
	day   int
}

func (e *Event) parseDate() error {
	for _, layout := range []string{"2006-01-02", "01-02"} {
		t, err := time.Parse(layout, e.Date)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			e.year = t.Year()
		}
		e.month, e.day = t.Month(), t.Day()
		return nil
	}
	return errs.NewConfiguration("content.Event", fmt.Sprintf("event %q: invalid date %q", e.Name, e.Date))
}

// MonthDay returns the recurring date.
func (e Event) MonthDay() (time.Month, int) { return e.month, e.day }

// Anniversary returns how many years separate the event from now's year,
// or 0 when the year is unknown.
func (e Event) Anniversary(now time.Time) int {
	if e.year == 0 {
		return 0
	}
	return now.Year() - e.year
}

// Topic renders the event as a generation topic, with anniversary framing
// when the year is known.
func (e Event) Topic(now time.Time) string {
	var b strings.Builder
	b.WriteString(e.Name)
	if n := e.Anniversary(now); n > 0 {
		fmt.Fprintf(&b, " (%d years, %s)", n, e.Date[:4])
	}
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}
	return b.String()
}

// Catalog is a read-only set of events.
type Catalog struct {
	events []Event
}

// NewCatalog validates every event date.
func NewCatalog(events []Event) (*Catalog, error) {
	c := &Catalog{events: make([]Event, 0, len(events))}
	for _, e := range events {
		if strings.TrimSpace(e.Name) == "" {
			return nil, errs.NewConfiguration("content.NewCatalog", "event name is required")
		}
		if err := e.parseDate(); err != nil {
			return nil, err
		}
		e.RelatedSections = slices.Clone(e.RelatedSections)
		c.events = append(c.events, e)
	}
	return c, nil
}

func (c *Catalog) All() []Event {
	if c == nil {
		return nil
	}
	return slices.Clone(c.events)
}

// OnDate returns events that recur on month/day.
func (c *Catalog) OnDate(month time.Month, day int) []Event {
	if c == nil {
		return nil
	}
	var out []Event
	for _, e := range c.events {
		if e.month == month && e.day == day {
			out = append(out, e)
		}
	}
	return out
}

// Upcoming returns events whose next occurrence falls within days of from,
// soonest first. An event on from's date counts.
func (c *Catalog) Upcoming(from time.Time, days int) []Event {
	if c == nil {
		return nil
	}
	type hit struct {
		e     Event
		until int
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	var hits []hit
	for _, e := range c.events {
		next := time.Date(start.Year(), e.month, e.day, 0, 0, 0, 0, time.UTC)
		if next.Before(start) {
			next = next.AddDate(1, 0, 0)
		}
		until := int(next.Sub(start).Hours() / 24)
		if until <= days {
			hits = append(hits, hit{e, until})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.until - b.until })
	out := make([]Event, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out
}

// ByName finds an event by exact name, case-insensitively, then by
// substring.
func (c *Catalog) ByName(name string) (Event, bool) {
	if c == nil {
		return Event{}, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Event{}, false
	}
	for _, e := range c.events {
		if strings.ToLower(e.Name) == name {
			return e, true
		}
	}
	for _, e := range c.events {
		if strings.Contains(strings.ToLower(e.Name), name) {
			return e, true
		}
	}
	return Event{}, false
}
