// Package content holds the output side of generation: prompt templates,
// validation of model output and formatting into postable text.
package content

import (
	"fmt"
	"strings"

	"github.com/dgallion1/citegest/internal/errs"
)

// ContentType selects the output shape.
type ContentType string

const (
	Tweet  ContentType = "tweet"
	Thread ContentType = "thread"
	Script ContentType = "script"
)

// ContentTypes lists the supported output shapes.
func ContentTypes() []ContentType { return []ContentType{Tweet, Thread, Script} }

// ParseContentType accepts a content type name; empty means Tweet.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case "":
		return Tweet, nil
	case Tweet, Thread, Script:
		return ct, nil
	default:
		e := errs.NewInvalidInput("content.ParseContentType", fmt.Sprintf("unknown content type %q", s))
		e.Details = map[string]any{"available": ContentTypes()}
		return "", e
	}
}

const (
	DefaultMaxPostLength   = 280
	DefaultMaxThreadPosts  = 10
	DefaultMaxScriptLength = 6000
	MinThreadPosts         = 2
	DefaultThreadPosts     = 5
	MinPostLength          = 20
)

// Limits are the platform bounds applied by the formatter and validator.
type Limits struct {
	MaxPostLength   int `json:"max_post_length"`
	MaxThreadPosts  int `json:"max_thread_posts"`
	MaxScriptLength int `json:"max_script_length"`
}

// DefaultLimits returns the 280-character, 10-post bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxPostLength:   DefaultMaxPostLength,
		MaxThreadPosts:  DefaultMaxThreadPosts,
		MaxScriptLength: DefaultMaxScriptLength,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxPostLength <= 0 {
		l.MaxPostLength = d.MaxPostLength
	}
	if l.MaxThreadPosts <= 0 {
		l.MaxThreadPosts = d.MaxThreadPosts
	}
	if l.MaxScriptLength <= 0 {
		l.MaxScriptLength = d.MaxScriptLength
	}
	return l
}

// CheckThreadLength rejects a requested thread length outside
// [MinThreadPosts, max].
func (l Limits) CheckThreadLength(n int) error {
	l = l.withDefaults()
	if n < MinThreadPosts || n > l.MaxThreadPosts {
		e := errs.NewInvalidInput("content.CheckThreadLength",
			fmt.Sprintf("thread length must be between %d and %d, got %d", MinThreadPosts, l.MaxThreadPosts, n))
		e.Details = map[string]any{"num_posts": n}
		return e
	}
	return nil
}
