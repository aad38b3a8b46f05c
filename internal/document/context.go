package document

// DocumentContext is a value snapshot handed to prompt templates. It holds
// no reference back into the ParsedDocument.
type DocumentContext struct {
	DocumentName      string   `json:"document_name"`
	DocumentShortName string   `json:"document_short_name"`
	SectionLabel      string   `json:"section_label"`
	Description       string   `json:"description,omitempty"`
	DefaultHashtags   []string `json:"default_hashtags,omitempty"`
}

// ContextFrom builds a snapshot. hashtags is copied.
func ContextFrom(d *ParsedDocument, hashtags []string) DocumentContext {
	short := d.ShortName
	if short == "" {
		short = d.Name
	}
	return DocumentContext{
		DocumentName:      d.Name,
		DocumentShortName: short,
		SectionLabel:      d.Label(),
		Description:       d.Description,
		DefaultHashtags:   append([]string(nil), hashtags...),
	}
}
