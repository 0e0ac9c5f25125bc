// Package knowledge holds the association's knowledge-base text and extracts
// tournament schedule and results records from it.
package knowledge

import (
	"fmt"
	"os"
	"strings"

	"github.com/hvga/hvga-og/internal/dates"
)

const (
	scheduleHeader = "Tournament Schedule:"
	winnersHeader  = "Tournament Winners:"
	sectionEnd     = ">>>"
)

// Base is the knowledge-base text, loaded once and never mutated.
type Base struct {
	text     string
	path     string
	resolver *dates.Resolver
}

// Load reads the knowledge-base file at path.
func Load(path string, resolver *dates.Resolver) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base %s: %w", path, err)
	}
	b := NewBase(string(data), resolver)
	b.path = path
	return b, nil
}

// NewBase wraps already-loaded text.
func NewBase(text string, resolver *dates.Resolver) *Base {
	if resolver == nil {
		resolver = dates.New(nil)
	}
	return &Base{
		text:     strings.ReplaceAll(text, "\r\n", "\n"),
		resolver: resolver,
	}
}

// Text returns the full knowledge-base text.
func (b *Base) Text() string { return b.text }

// Path returns the file the base was loaded from, if any.
func (b *Base) Path() string { return b.path }

// Resolver returns the date resolver used for extraction and queries.
func (b *Base) Resolver() *dates.Resolver { return b.resolver }

// section returns the text between header and the next ">>>" marker, or
// to the end of the text when no marker follows.
func (b *Base) section(header string) (string, bool) {
	start := strings.Index(b.text, header)
	if start < 0 {
		return "", false
	}
	body := b.text[start+len(header):]
	if end := strings.Index(body, sectionEnd); end >= 0 {
		body = body[:end]
	}
	return body, true
}

// Issue describes a line or block that could not be turned into a record.
type Issue struct {
	Section string `json:"section"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Reason  string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s line %d: %s (%q)", i.Section, i.Line, i.Reason, i.Text)
}
