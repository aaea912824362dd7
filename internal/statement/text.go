package statement

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{Title: titleFromName(filename)}
	var para []string
	emit := func() {
		if len(para) > 0 {
			doc.Sections = append(doc.Sections, Section{Text: strings.Join(para, "\n")})
			para = para[:0]
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		para = append(para, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	emit()
	return doc, nil
}
