package drafts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/pathstore"
)

// Key layout in pathstore.
const (
	draftsPrefix = "citegest/drafts"
	topicsPrefix = "citegest/topics"
	source       = "citegest"
)

// Pathstore keeps drafts in a remote pathstore, each linked to a node for
// its topic.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(c *pathstore.Client) *Pathstore {
	return &Pathstore{client: c}
}

func draftKey(id string) string { return draftsPrefix + "/" + id }

func (p *Pathstore) Save(ctx context.Context, c *modes.GeneratedContent) error {
	if c == nil || c.ID == "" {
		return errs.NewInvalidInput("drafts.Save", "content id is required")
	}
	key := draftKey(c.ID)
	if err := p.client.PutNode(ctx, key, pathstore.NodeRequest{Value: c, Source: source}); err != nil {
		return fmt.Errorf("save draft %s: %w", c.ID, err)
	}

	slug := content.Slugify(c.Topic)
	if slug == "" {
		return nil
	}
	topicKey := topicsPrefix + "/" + slug
	if err := p.client.PutNode(ctx, topicKey, pathstore.NodeRequest{
		Value:     map[string]string{"topic": c.Topic},
		MergeMode: "replace",
		Source:    source,
	}); err != nil {
		return fmt.Errorf("save topic %s: %w", slug, err)
	}
	return p.client.PutLink(ctx, pathstore.LinkRequest{From: key, To: topicKey, Weight: 1, Summary: c.Topic})
}

func (p *Pathstore) Get(ctx context.Context, id string) (*modes.GeneratedContent, error) {
	node, err := p.client.GetNode(ctx, draftKey(id))
	if err != nil {
		return nil, fmt.Errorf("get draft %s: %w", id, err)
	}
	if node == nil {
		return nil, errs.NewNotFound("draft", id)
	}
	return decode(string(node.Value))
}

// List scans the drafts prefix and filters client-side.
func (p *Pathstore) List(ctx context.Context, f Filter) ([]*modes.GeneratedContent, error) {
	nodes, err := p.client.ListChildren(ctx, draftsPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	var out []*modes.GeneratedContent
	for _, n := range nodes {
		var c modes.GeneratedContent
		if err := json.Unmarshal(n.Value, &c); err != nil {
			return nil, fmt.Errorf("decode draft %s: %w", n.Key, err)
		}
		if f.match(&c) {
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}

// Delete removes the draft node. Topic nodes are shared and stay.
func (p *Pathstore) Delete(ctx context.Context, id string) error {
	node, err := p.client.GetNode(ctx, draftKey(id))
	if err != nil {
		return fmt.Errorf("get draft %s: %w", id, err)
	}
	if node == nil {
		return errs.NewNotFound("draft", id)
	}
	if err := p.client.DeleteNode(ctx, draftKey(id), false); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}
