// Package modes turns a topic and a loaded document into grounded content.
// Each mode plans the topic and the grounding sections; the Generator runs
// the shared skeleton around the plan: pre-flight, context, prompt,
// provider call, formatting, validation and citations.
package modes

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/retriever"
)

// Mode names.
const (
	BotProposed  = "bot_proposed"
	UserProvided = "user_provided"
	Historical   = "historical"
	Insight      = "insight"
	Commentary   = "commentary"
)

const (
	generationTemperature = 0.7
	suggestionTemperature = 0.8
	maxTemperature        = 2.0
)

// Status of a generated result.
type Status string

const (
	StatusReady       Status = "ready"
	StatusNeedsReview Status = "needs_review"
)

// Request selects a mode and its options. Fields a mode does not use are
// ignored.
type Request struct {
	Mode        string `json:"mode"`
	ContentType string `json:"content_type,omitempty"`
	Language    string `json:"language,omitempty"`
	Topic       string `json:"topic,omitempty"`
	Sections    []int  `json:"section_nums,omitempty"`
	NumPosts    int    `json:"num_posts,omitempty"`
	Duration    string `json:"duration,omitempty"`
	// Temperature overrides the mode's sampling temperature, 0 to 2.
	Temperature *float64 `json:"temperature,omitempty"`

	// bot_proposed
	Spotlight bool `json:"spotlight,omitempty"`
	Featured  bool `json:"featured,omitempty"`
	// user_provided: explain, compare, faq or reply
	Task    string `json:"task,omitempty"`
	Mention string `json:"mention,omitempty"`
	// historical: free text, or a catalog event by name or MM-DD date
	Event     string `json:"event,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	// insight
	Perspective string `json:"perspective,omitempty"`
	// commentary
	Kind string `json:"kind,omitempty"`
	Deep bool   `json:"deep,omitempty"`
}

// Plan is a mode's decision about what to write and what grounds it.
type Plan struct {
	Topic    string
	Angle    string
	Reason   string
	Brief    string
	Event    string
	Sections []int
	// Temperature nil uses generationTemperature.
	Temperature *float64
}

// Mode plans one kind of generation.
type Mode interface {
	Name() string
	Plan(ctx context.Context, g *Generator, r *retriever.Retriever, req Request) (Plan, error)
}

// GeneratedContent is the result of one generation. A result that failed
// validation is still returned, with Status needs_review.
type GeneratedContent struct {
	ID               string                       `json:"id"`
	Mode             string                       `json:"mode"`
	ContentType      content.ContentType          `json:"content_type"`
	Language         string                       `json:"language"`
	Topic            string                       `json:"topic"`
	Angle            string                       `json:"angle,omitempty"`
	RawContent       string                       `json:"raw_content"`
	FormattedContent string                       `json:"formatted_content"`
	Posts            []string                     `json:"posts,omitempty"`
	Script           *content.ScriptDoc           `json:"script,omitempty"`
	Citations        []document.CitationReference `json:"citations"`
	Status           Status                       `json:"status"`
	Validation       content.Result               `json:"validation"`
	Safety           content.SafetyResult         `json:"safety"`
	ContextTruncated bool                         `json:"context_truncated,omitempty"`
	Provider         string                       `json:"provider"`
	Model            string                       `json:"model"`
	CreatedAt        time.Time                    `json:"created_at"`
}

// ValidationError returns an errs.KindValidation error for a needs_review
// result, nil otherwise. Safety findings that forced the review are among
// the listed problems.
func (c *GeneratedContent) ValidationError() error {
	if c.Status != StatusNeedsReview {
		return nil
	}
	return errs.NewValidation(c.Validation.Errors)
}

// Config tunes the Generator.
type Config struct {
	Limits content.Limits
	// ContextTokens bounds the grounding block; 0 leaves it unbounded.
	ContextTokens int
	// NoDisclaimers stops the formatter from appending disclaimers.
	NoDisclaimers bool
}

// Generator runs modes against an injected provider.
type Generator struct {
	provider    llm.Provider
	templates   *content.Registry
	events      *content.Catalog
	safety      *content.ContentFilter
	disclaimers *content.Disclaimers
	cfg         Config
	log         *slog.Logger
	modes       map[string]Mode

	now func() time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	entropy *ulid.MonotonicEntropy
}

// New builds a Generator with the built-in modes. A nil templates uses
// DefaultTemplates; a nil events catalog disables catalog lookups.
func New(p llm.Provider, templates *content.Registry, events *content.Catalog, cfg Config, log *slog.Logger) *Generator {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if log == nil {
		log = slog.Default()
	}
	g := &Generator{
		provider:  p,
		templates: templates,
		events:    events,
		safety:    content.NewContentFilter(),
		cfg:       cfg,
		log:       log,
		modes:     make(map[string]Mode),
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		entropy:   ulid.Monotonic(crand.Reader, 0),
	}
	if !cfg.NoDisclaimers {
		g.disclaimers = content.NewDisclaimers()
	}
	for _, m := range []Mode{botProposed{}, userProvided{}, historical{}, insight{}, commentary{}} {
		g.Register(m)
	}
	return g
}

// Register adds or replaces a mode.
func (g *Generator) Register(m Mode) {
	g.modes[m.Name()] = m
}

// Modes lists the registered mode names.
func (g *Generator) Modes() []string {
	names := make([]string, 0, len(g.modes))
	for n := range g.modes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Provider returns the injected provider.
func (g *Generator) Provider() llm.Provider { return g.provider }

// Events returns the event catalog, which may be nil.
func (g *Generator) Events() *content.Catalog { return g.events }

func (g *Generator) newID(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

func (g *Generator) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *Generator) randomSection(r *retriever.Retriever, from []*document.Section) (*document.Section, bool) {
	if len(from) > 0 {
		return from[g.intN(len(from))], true
	}
	secs := r.Document().AllSections()
	if len(secs) == 0 {
		return nil, false
	}
	return secs[g.intN(len(secs))], true
}

// ask renders a planning prompt and returns the provider's reply.
func (g *Generator) ask(ctx context.Context, mode string, data PromptData, temperature float64) (string, error) {
	prompt, err := g.templates.Render(mode, planContentType, language.English, data)
	if err != nil {
		return "", err
	}
	out, err := g.provider.Generate(ctx, prompt, llm.Options{
		System:      SystemPrompt(data.Doc),
		Temperature: llm.Temperature(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s plan: %w", mode, err)
	}
	return llm.StripCodeBlock(out), nil
}

func (g *Generator) baseData(r *retriever.Retriever) PromptData {
	return PromptData{
		Doc:       r.Context(),
		Label:     r.Label(),
		MaxLength: g.cfg.Limits.MaxPostLength,
	}
}

type normalized struct {
	ct       content.ContentType
	lang     language.Tag
	numPosts int
}

func (g *Generator) normalize(req Request) (normalized, error) {
	var n normalized
	ct, err := content.ParseContentType(req.ContentType)
	if err != nil {
		return n, err
	}
	n.ct = ct
	if n.lang, err = content.ParseLanguage(req.Language); err != nil {
		return n, err
	}
	if ct == content.Thread {
		n.numPosts = req.NumPosts
		if n.numPosts == 0 {
			n.numPosts = content.DefaultThreadPosts
		}
		if err := g.cfg.Limits.CheckThreadLength(n.numPosts); err != nil {
			return n, err
		}
	}
	if t := req.Temperature; t != nil && (*t < 0 || *t > maxTemperature) {
		return n, errs.NewInvalidInput("modes.Generate", fmt.Sprintf("temperature must be between 0 and %g", maxTemperature))
	}
	for _, s := range []string{req.Topic, req.Event, req.Mention} {
		if err := content.CheckTopic(s); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Generate runs req's mode against r. A provider that fails its pre-flight
// check yields errs.KindProviderUnavailable before any generation call. If
// ctx is cancelled while the provider call is in flight, ctx.Err() is
// returned and no result is produced.
func (g *Generator) Generate(ctx context.Context, r *retriever.Retriever, req Request) (*GeneratedContent, error) {
	start := time.Now()
	mode, ok := g.modes[req.Mode]
	if !ok {
		e := errs.NewInvalidInput("modes.Generate", fmt.Sprintf("unknown mode %q", req.Mode))
		e.Details = map[string]any{"available": g.Modes()}
		return nil, e
	}
	n, err := g.normalize(req)
	if err != nil {
		return nil, err
	}
	if !g.templates.Has(req.Mode, n.ct) {
		return nil, errs.NewConfiguration("modes.Generate", fmt.Sprintf("no template for %s/%s", req.Mode, n.ct))
	}
	if r == nil || r.Document().SectionCount() == 0 {
		return nil, errs.NewNotFound("document", "active")
	}

	if !g.provider.IsAvailable(ctx) {
		return nil, errs.NewUnavailable(g.provider.ProviderName())
	}

	plan, err := mode.Plan(ctx, g, r, req)
	if err != nil {
		return nil, err
	}
	secs := r.SectionsForCitation(plan.Sections)
	if len(secs) == 0 {
		e := errs.NewInvalidInput("modes.Generate", "no grounding sections for request")
		e.Details = map[string]any{"topic": plan.Topic, "section_nums": plan.Sections}
		return nil, e
	}

	block, kept, truncated := r.ContextBlock(secs, g.cfg.ContextTokens)
	if len(kept) == 0 {
		e := errs.NewInvalidInput("modes.Generate", "no grounding section fits the context budget")
		e.Details = map[string]any{"section_nums": plan.Sections, "max_tokens": g.cfg.ContextTokens}
		return nil, e
	}
	if truncated {
		g.log.Warn("grounding context truncated", "mode", req.Mode, "sections", len(secs), "kept", len(kept), "max_tokens", g.cfg.ContextTokens)
	}

	data := g.baseData(r)
	data.Topic = plan.Topic
	data.Angle = plan.Angle
	data.Brief = plan.Brief
	data.Event = plan.Event
	data.Context = block
	data.NumPosts = n.numPosts
	data.Duration = req.Duration
	if data.MaxLength <= 0 {
		data.MaxLength = content.DefaultMaxPostLength
	}

	prompt, err := g.templates.Render(req.Mode, n.ct, n.lang, data)
	if err != nil {
		return nil, err
	}
	temperature := plan.Temperature
	if req.Temperature != nil {
		temperature = req.Temperature
	}
	if temperature == nil {
		temperature = llm.Temperature(generationTemperature)
	}
	raw, err := g.provider.Generate(ctx, prompt, llm.Options{
		System:      SystemPrompt(data.Doc),
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Mode, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created := g.now().UTC()
	out := &GeneratedContent{
		ID:               g.newID(created),
		Mode:             req.Mode,
		ContentType:      n.ct,
		Language:         n.lang.String(),
		Topic:            plan.Topic,
		Angle:            plan.Angle,
		RawContent:       raw,
		ContextTruncated: truncated,
		Provider:         g.provider.ProviderName(),
		Model:            g.provider.ModelName(),
		CreatedAt:        created,
	}
	g.shape(out, r, raw, n)
	g.screen(out, req)

	// Only sections that reached the prompt are cited.
	out.Citations = make([]document.CitationReference, 0, len(kept))
	for _, s := range kept {
		if ref, ok := r.Citation(s.Num); ok {
			out.Citations = append(out.Citations, ref)
		}
	}

	g.settle(out)
	g.log.Info("content generated",
		"id", out.ID,
		"mode", out.Mode,
		"content_type", out.ContentType,
		"language", out.Language,
		"status", out.Status,
		"sections", len(out.Citations),
		"provider", out.Provider,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// shape formats raw for the content type and validates the formatted result.
func (g *Generator) shape(out *GeneratedContent, r *retriever.Retriever, raw string, n normalized) {
	lo, hi := r.Document().SectionRange()
	v := content.NewValidator(r.Label(), lo, hi, g.cfg.Limits)
	f := content.NewFormatter(g.cfg.Limits, r.Context().DefaultHashtags).WithDisclaimers(g.disclaimers)

	switch n.ct {
	case content.Thread:
		posts, cut, ok := f.Thread(raw, n.numPosts)
		want := n.numPosts
		if ok {
			var added int
			posts, added = f.DisclaimThread(posts)
			want += added
		}
		out.Posts = posts
		out.FormattedContent = content.JoinPosts(posts)
		out.Validation = v.Thread(posts, want)
		for _, i := range cut {
			out.Validation.Warnings = append(out.Validation.Warnings, fmt.Sprintf("post %d was truncated", i))
		}
	case content.Script:
		doc, cut := f.Script(raw, out.Topic)
		doc.Content = f.DisclaimScript(doc.Content)
		out.Script = &doc
		out.FormattedContent = doc.Content
		out.Validation = v.Script(doc.Content)
		if cut {
			out.Validation.Warnings = append(out.Validation.Warnings, "script was truncated")
		}
	default:
		post, cut := f.Post(raw)
		post = f.DisclaimPost(post)
		out.Posts = []string{post}
		out.FormattedContent = post
		out.Validation = v.Post(post)
		if cut {
			out.Validation.Warnings = append(out.Validation.Warnings, "post was truncated")
		}
	}
}

func (g *Generator) settle(out *GeneratedContent) {
	out.Status = StatusReady
	if !out.Validation.Valid {
		out.Status = StatusNeedsReview
		g.log.Warn("generated content needs review", "id", out.ID, "mode", out.Mode, "problems", out.Validation.Errors, "safety", out.Safety.Level)
	}
}

// screen runs the safety filter over the formatted content. A result that
// needs review or is blocked fails validation.
func (g *Generator) screen(out *GeneratedContent, req Request) {
	if strings.EqualFold(strings.TrimSpace(req.Task), TaskReply) {
		out.Safety = g.safety.CheckReply(out.FormattedContent, req.Mention)
	} else {
		out.Safety = g.safety.Check(out.FormattedContent)
	}
	out.Validation.ApplySafety(out.Safety)
	if out.Safety.Level == content.SafetyBlocked {
		g.log.Warn("generated content blocked", "id", out.ID, "reason", out.Safety.BlockedReason)
	}
}

// existing keeps the numbers that name a section of r, in order, without
// duplicates.
func existing(r *retriever.Retriever, nums []int) []int {
	var out []int
	for _, n := range nums {
		if _, ok := r.Section(n); ok && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func sectionNums(secs []*document.Section) []int {
	out := make([]int, len(secs))
	for i, s := range secs {
		out[i] = s.Num
	}
	return out
}
