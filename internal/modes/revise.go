package modes

import (
	"strings"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/retriever"
)

// Revise replaces c's text with a human edit and re-runs validation and
// the safety filter against r. Thread text is in the storage format, posts
// joined by content.PostSeparator. Citations are left as generated.
func (g *Generator) Revise(r *retriever.Retriever, c *GeneratedContent, text string) error {
	const op = "modes.Revise"
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewInvalidInput(op, "edited content is empty")
	}
	if r == nil || r.Document().SectionCount() == 0 {
		return errs.NewNotFound("document", "active")
	}
	lo, hi := r.Document().SectionRange()
	v := content.NewValidator(r.Label(), lo, hi, g.cfg.Limits)

	switch c.ContentType {
	case content.Thread:
		posts := content.SplitPosts(text)
		c.Posts = posts
		c.FormattedContent = content.JoinPosts(posts)
		c.Validation = v.Thread(posts, 0)
	case content.Script:
		doc := content.ParseScript(text, c.Topic)
		c.Script = &doc
		c.Posts = nil
		c.FormattedContent = doc.Content
		c.Validation = v.Script(doc.Content)
	default:
		c.Posts = []string{text}
		c.FormattedContent = text
		c.Validation = v.Post(text)
	}
	c.Safety = g.safety.Check(c.FormattedContent)
	c.Validation.ApplySafety(c.Safety)
	g.settle(c)
	g.log.Info("content revised", "id", c.ID, "status", c.Status)
	return nil
}
