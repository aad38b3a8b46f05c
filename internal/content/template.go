package content

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/dgallion1/citegest/internal/errs"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is used for an empty language code and as the fallback
// template language.
const DefaultLanguage = "en"

// Key addresses a prompt template.
type Key struct {
	Mode        string
	ContentType ContentType
	Language    string
}

func (k Key) String() string {
	return k.Mode + "/" + string(k.ContentType) + "/" + k.Language
}

// Registry holds prompt templates keyed by mode, content type and language.
// Lookups fall back from a regional tag to its base language and then to
// English; an English fallback for another language gets an instruction to
// answer in that language.
type Registry struct {
	mu    sync.RWMutex
	tmpls map[Key]*template.Template
	funcs template.FuncMap
}

func NewRegistry() *Registry {
	return &Registry{
		tmpls: make(map[Key]*template.Template),
		funcs: template.FuncMap{
			"lower": strings.ToLower,
			"upper": strings.ToUpper,
			"join":  strings.Join,
		},
	}
}

// Register parses text and stores it under k, replacing any previous
// template. Missing fields in the render data are an error.
func (r *Registry) Register(k Key, text string) error {
	if k.Language == "" {
		k.Language = DefaultLanguage
	}
	tag, err := ParseLanguage(k.Language)
	if err != nil {
		return err
	}
	k.Language = tag.String()
	t, err := template.New(k.String()).Funcs(r.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return errs.NewConfiguration("content.Register", fmt.Sprintf("template %s: %v", k, err))
	}
	r.mu.Lock()
	r.tmpls[k] = t
	r.mu.Unlock()
	return nil
}

// MustRegister is Register for built-in templates.
func (r *Registry) MustRegister(k Key, text string) {
	if err := r.Register(k, text); err != nil {
		panic(err)
	}
}

// Has reports whether a template for mode and content type exists in any
// language.
func (r *Registry) Has(mode string, ct ContentType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := range r.tmpls {
		if k.Mode == mode && k.ContentType == ct {
			return true
		}
	}
	return false
}

func (r *Registry) lookup(mode string, ct ContentType, tag language.Tag) (*template.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tmpls[Key{mode, ct, tag.String()}]; ok {
		return t, true
	}
	base, _ := tag.Base()
	if t, ok := r.tmpls[Key{mode, ct, base.String()}]; ok {
		return t, true
	}
	t, ok := r.tmpls[Key{mode, ct, DefaultLanguage}]
	if ok && base.String() == DefaultLanguage {
		return t, true
	}
	return t, false
}

// Render executes the template for (mode, ct, lang) with data.
func (r *Registry) Render(mode string, ct ContentType, lang language.Tag, data any) (string, error) {
	t, native := r.lookup(mode, ct, lang)
	if t == nil {
		e := errs.NewConfiguration("content.Render", fmt.Sprintf("no template for %s/%s", mode, ct))
		e.Details = map[string]any{"mode": mode, "content_type": ct}
		return "", e
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", errs.NewConfiguration("content.Render", fmt.Sprintf("template %s: %v", t.Name(), err))
	}
	if !native {
		fmt.Fprintf(&b, "\n\nWrite the entire response in %s. Keep citation labels exactly as they appear in the source text.", LanguageName(lang))
	}
	return b.String(), nil
}

// ParseLanguage validates a BCP 47 code. Empty means DefaultLanguage.
func ParseLanguage(code string) (language.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = DefaultLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		e := errs.NewInvalidInput("content.ParseLanguage", fmt.Sprintf("invalid language code %q", code))
		e.Err = err
		return language.Und, e
	}
	return tag, nil
}

// LanguageName returns the English name of tag, e.g. "Afrikaans".
func LanguageName(tag language.Tag) string {
	if name := display.Tags(language.English).Name(tag); name != "" {
		return name
	}
	return tag.String()
}
