package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text files. Blank lines end a block; single
// line breaks inside a block are kept because chapter and section headings
// are recognised line by line.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Extracted, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := &Extracted{Title: baseTitle(filename)}
	var lines []string
	flush := func() {
		out.add(strings.Join(lines, "\n"))
		lines = lines[:0]
	}

	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		// Form feeds from exported text act as block breaks.
		if strings.Contains(line, "\f") {
			flush()
			line = strings.ReplaceAll(line, "\f", "")
		}
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}
