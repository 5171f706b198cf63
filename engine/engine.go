package engine

import (
	"context"
	"errors"
	"fmt"
)

// Engine names accepted by Open.
const (
	NameRod      = "rod"
	NameChromedp = "chromedp"
	NameHTTP     = "http"
)

// ErrSectionNotFound is returned by Session.Section when no container
// matches the query before the configured wait elapses.
var ErrSectionNotFound = errors.New("section not found")

// Session is one long-lived browsing context (a single tab, or a single
// HTTP client for the static engine). It is driven sequentially and is not
// safe for concurrent use.
type Session interface {
	// Name returns the engine identifier (e.g. "rod", "chromedp", "http").
	Name() string

	// Navigate loads url and waits for the page load to finish.
	Navigate(ctx context.Context, url string) error

	// Reload reloads the current page and waits for the load to finish.
	Reload(ctx context.Context) error

	// Section locates the container described by q on the current page.
	Section(ctx context.Context, q SectionQuery) (Section, error)

	// Close releases the session. The remote browser process is left running.
	Close() error
}

// Section is a located content container.
type Section interface {
	// Paragraphs returns the paragraph-level elements inside the container,
	// in document order. An empty slice is not an error.
	Paragraphs(ctx context.Context) ([]Element, error)
}

// Element is a single element whose rendered text can be read.
type Element interface {
	Text(ctx context.Context) (string, error)
}

// SectionQuery describes a container by its heading: the parent
// ContainerTag of the first HeadingTag whose text contains HeadingText.
// ParagraphTag selects the text blocks inside it.
type SectionQuery struct {
	HeadingTag   string
	HeadingText  string
	ContainerTag string
	ParagraphTag string
}

// XPath renders the query as an XPath expression, e.g.
// //h3[contains(text(),'Authorization Details')]/parent::div
func (q SectionQuery) XPath() string {
	return fmt.Sprintf("//%s[contains(text(),'%s')]/parent::%s",
		q.HeadingTag, q.HeadingText, q.ContainerTag)
}

// CSS renders the heading part of the query as a cascadia selector. The
// match is case-insensitive, so callers recheck the heading's own text.
func (q SectionQuery) CSS() string {
	return fmt.Sprintf("%s:containsOwn(%q)", q.HeadingTag, q.HeadingText)
}
