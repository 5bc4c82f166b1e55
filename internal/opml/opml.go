package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

// OPML is the root document for subscription exchange.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline is one entry in the document. Aggregator exports often group
// feeds under folder outlines, so outlines nest.
type Outline struct {
	Type     string    `xml:"type,attr,omitempty"`
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline"`
}

// Subscription is a feed reference extracted from an OPML document.
type Subscription struct {
	Title   string
	FeedURL string
}

// Export writes the subscriptions as an OPML 2.0 document.
func Export(w io.Writer, subscriptions []Subscription) error {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       "Teapod Subscriptions",
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
		Body: Body{
			Outlines: make([]Outline, 0, len(subscriptions)),
		},
	}

	for _, sub := range subscriptions {
		doc.Body.Outlines = append(doc.Body.Outlines, Outline{
			Type:   "rss",
			Text:   sub.Title,
			Title:  sub.Title,
			XMLURL: sub.FeedURL,
		})
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode OPML: %w", err)
	}
	return nil
}

// Import extracts feed subscriptions from an OPML document, descending into
// folder outlines and dropping entries without a feed URL. Duplicate URLs
// are collapsed to the first occurrence.
func Import(r io.Reader) ([]Subscription, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode OPML: %w", err)
	}

	var subscriptions []Subscription
	seen := make(map[string]bool)
	var walk func(outlines []Outline)
	walk = func(outlines []Outline) {
		for _, outline := range outlines {
			if url := strings.TrimSpace(outline.XMLURL); url != "" && !seen[url] {
				seen[url] = true
				title := outline.Title
				if title == "" {
					title = outline.Text
				}
				subscriptions = append(subscriptions, Subscription{Title: title, FeedURL: url})
			}
			walk(outline.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return subscriptions, nil
}
