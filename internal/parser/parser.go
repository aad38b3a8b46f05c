package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extracted is the plain text recovered from an uploaded file. Blocks are
// headings or paragraphs in reading order; a heading is always its own
// single-line block so structure strategies see it on a line by itself.
type Extracted struct {
	Title  string
	Blocks []string
	Pages  int // 0 if N/A
}

// Text joins the blocks with blank lines.
func (e *Extracted) Text() string {
	return strings.Join(e.Blocks, "\n\n")
}

func (e *Extracted) add(block string) {
	block = strings.TrimSpace(block)
	if block != "" {
		e.Blocks = append(e.Blocks, block)
	}
}

// Parser converts raw document bytes into plain text.
type Parser interface {
	Parse(r io.Reader, filename string) (*Extracted, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
