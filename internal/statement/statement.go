// Package statement turns an uploaded written complaint into plain text for
// the first information contents of a report.
package statement

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var ErrEmpty = errors.New("statement has no text")

// Document is a parsed statement, split at its headings.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is a heading and the text under it. Text before the first heading
// has an empty Heading.
type Section struct {
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
	Page    int    `json:"page,omitempty"`
}

// Text flattens the document, headings on their own lines, blocks separated
// by blank lines.
func (d *Document) Text() string {
	var blocks []string
	for _, s := range d.Sections {
		if s.Heading != "" {
			blocks = append(blocks, s.Heading)
		}
		if s.Text != "" {
			blocks = append(blocks, s.Text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// Parser converts raw statement bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists the statement formats accepted for upload.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the parser for a filename's extension.
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
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Import parses r with the parser for filename and fails with ErrEmpty when
// nothing readable comes out.
func Import(r io.Reader, filename string) (*Document, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text()) == "" {
		return nil, ErrEmpty
	}
	return doc, nil
}

func titleFromName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// builder accumulates blocks under the most recent heading.
type builder struct {
	doc  Document
	page int
	buf  bytes.Buffer
}

func newBuilder(title string) *builder {
	return &builder{doc: Document{Title: title}}
}

func (b *builder) heading(h string) {
	h = strings.TrimSpace(h)
	if h == "" {
		return
	}
	b.flush()
	b.doc.Sections = append(b.doc.Sections, Section{Heading: h, Page: b.page})
}

func (b *builder) block(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.buf.Len() > 0 {
		b.buf.WriteString("\n\n")
	}
	b.buf.WriteString(t)
}

func (b *builder) flush() {
	t := b.buf.String()
	b.buf.Reset()
	if t == "" {
		return
	}
	n := len(b.doc.Sections)
	if n == 0 {
		b.doc.Sections = append(b.doc.Sections, Section{Text: t, Page: b.page})
		return
	}
	last := &b.doc.Sections[n-1]
	if last.Text != "" {
		last.Text += "\n\n" + t
	} else {
		last.Text = t
	}
}

func (b *builder) done() *Document {
	b.flush()
	return &b.doc
}
