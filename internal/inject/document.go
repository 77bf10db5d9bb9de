package inject

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/monitoring"
)

// bootstrapTemplate is the minimal document every frame starts from.
const bootstrapTemplate = `<!doctype html><html><head><meta charset="utf-8"></head><body><div id="c"></div></body></html>`

// Document is the bootstrap document assembled for one embed frame.
// Script tags and markup are written into it server-side; Render
// serializes the final document shipped to the frame.
type Document struct {
	doc     *goquery.Document
	policy  *bluemonday.Policy
	pending []*pendingScript
	metrics *monitoring.Metrics
}

type pendingScript struct {
	url    string
	onLoad func()
}

// NewDocument creates an empty bootstrap document.
func NewDocument() (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(bootstrapTemplate))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bootstrap template: %w", err)
	}

	// Embed shells carry class and data-* hooks; scripts and event
	// handlers still never survive sanitization.
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowDataAttributes()

	return &Document{
		doc:    doc,
		policy: policy,
	}, nil
}

// WithMetrics attaches a metrics collector.
func (d *Document) WithMetrics(m *monitoring.Metrics) *Document {
	d.metrics = m
	return d
}

// WriteHTML appends embed-provided markup to the container element.
// The fragment is sanitized first: third-party markup never reaches
// the document unfiltered.
func (d *Document) WriteHTML(fragment string) {
	clean := d.policy.Sanitize(fragment)
	d.doc.Find("#c").AppendHtml(clean)
}

// SetTitle sets the document title.
func (d *Document) SetTitle(title string) {
	head := d.doc.Find("head")
	if head.Find("title").Length() == 0 {
		head.AppendHtml("<title></title>")
	}
	head.Find("title").SetText(title)
}

// Container returns the embed container selection.
func (d *Document) Container() *goquery.Selection {
	return d.doc.Find("#c")
}

// Find exposes document queries to draw functions.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Scripts returns the src attributes of all script tags, in document
// order.
func (d *Document) Scripts() []string {
	var srcs []string
	d.doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			srcs = append(srcs, src)
		}
	})
	return srcs
}

// Render serializes the document to HTML.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	for _, node := range d.doc.Nodes {
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
	}
	return buf.String(), nil
}
