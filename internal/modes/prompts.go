package modes

import (
	"strings"
	"text/template"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/document"
)

// PromptData is what every prompt template renders from.
type PromptData struct {
	Doc       document.DocumentContext
	Label     string
	Topic     string
	Angle     string
	Brief     string
	Context   string
	NumPosts  int
	Duration  string
	MaxLength int
	Event     string
	TOC       string
}

const systemPromptText = `You write short educational material about {{.DocumentName}}{{if .Description}} ({{.Description}}){{end}}.

Principles:
- Stay neutral. Explain what the text says; do not take partisan positions.
- Be accurate. Ground every claim in the provided text and cite it as "{{.SectionLabel}} N".
- Use plain, everyday language and concrete examples.
- Never give legal advice for an individual situation; point people to qualified professionals instead.
- Add a short disclaimer when a topic is sensitive.`

var systemPrompt = template.Must(template.New("system").Parse(systemPromptText))

// SystemPrompt renders the fixed system prompt for a document.
func SystemPrompt(dc document.DocumentContext) string {
	var b strings.Builder
	if err := systemPrompt.Execute(&b, dc); err != nil {
		return systemPromptText
	}
	return b.String()
}

// Plan prompts are rendered in English because their replies are parsed.
const (
	planContentType content.ContentType = "plan"

	suggestTopicText = `Suggest a topic for a social media post about {{.Doc.DocumentName}} that people are likely to care about right now.

Table of contents:
{{.TOC}}

Reply in exactly this format:
TOPIC: [a specific topic, not a vague theme]
{{upper .Label}}: [the {{lower .Label}} number(s) to reference, comma separated]
ANGLE: [what makes someone stop scrolling]
WHY: [why this matters to real people]`

	historicalSectionsText = `Which provisions of {{.Doc.DocumentName}} relate most directly to this historical event or date?

Event: {{.Event}}

Table of contents:
{{.TOC}}

Reply with one line in exactly this format and nothing else:
{{upper .Label}}S: [up to five {{lower .Label}} numbers, comma separated]`
)

const (
	tweetFormat = `Requirements:
- Maximum {{.MaxLength}} characters
- Include at least one citation such as "{{.Label}} N"
- Include 1-2 relevant hashtags
- Do NOT provide legal advice

Generate only the post text, nothing else.`

	threadFormat = `Requirements:
- Exactly {{.NumPosts}} connected posts, each under {{.MaxLength}} characters
- Start with a hook and end with a takeaway
- Cite {{lower .Label}}s such as "{{.Label}} N" throughout
- Put hashtags only in the final post
- Do NOT provide legal advice

Format your response as:
TWEET 1: [content]
TWEET 2: [content]
...up to TWEET {{.NumPosts}}`

	scriptFormat = `Requirements:
- A spoken script{{if .Duration}} of about {{.Duration}}{{end}}
- Use "## " headers for each part
- Cite {{lower .Label}}s such as "{{.Label}} N" when you refer to them
- Do NOT provide legal advice

Generate only the script.`
)

var formats = map[content.ContentType]string{
	content.Tweet:  tweetFormat,
	content.Thread: threadFormat,
	content.Script: scriptFormat,
}

const groundingBlock = `Relevant text from {{.Doc.DocumentShortName}}:
{{.Context}}`

var briefs = map[string]string{
	BotProposed: `Create educational content about {{.Doc.DocumentShortName}}.

Topic: {{.Topic}}
{{if .Angle}}Angle: {{.Angle}}
{{end}}{{if .Brief}}{{.Brief}}
{{end}}
` + groundingBlock,

	UserProvided: `Create educational content about {{.Doc.DocumentShortName}}.

Topic: {{.Topic}}
{{if .Brief}}{{.Brief}}
{{end}}
` + groundingBlock,

	Historical: `Explain how {{.Doc.DocumentShortName}} relates to this historical event or date.

Event: {{.Event}}

Briefly explain the historical significance, connect it to the provisions below, name the values involved and make it relevant today.

` + groundingBlock,

	Insight: `Write an insight about {{.Doc.DocumentShortName}} that makes people think.

Topic: {{.Topic}}
Perspective: {{.Brief}}

` + groundingBlock,

	Commentary: `Write commentary on {{.Doc.DocumentShortName}}.

Topic: {{.Topic}}
{{.Brief}}

` + groundingBlock,
}

// DefaultTemplates returns a registry holding the English templates for
// every built-in mode and content type.
func DefaultTemplates() *content.Registry {
	r := content.NewRegistry()
	for mode, brief := range briefs {
		for ct, format := range formats {
			r.MustRegister(content.Key{Mode: mode, ContentType: ct}, brief+"\n\n"+format)
		}
	}
	r.MustRegister(content.Key{Mode: BotProposed, ContentType: planContentType}, suggestTopicText)
	r.MustRegister(content.Key{Mode: Historical, ContentType: planContentType}, historicalSectionsText)
	return r
}
