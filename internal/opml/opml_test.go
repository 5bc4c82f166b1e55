package opml

import (
	"bytes"
	"strings"
	"testing"
)

func TestExport(t *testing.T) {
	subs := []Subscription{
		{Title: "Test Podcast 1", FeedURL: "https://example.com/feed1.xml"},
		{Title: "Test Podcast 2", FeedURL: "https://example.com/feed2.xml"},
	}

	var buf bytes.Buffer
	if err := Export(&buf, subs); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Test Podcast 1") {
		t.Errorf("Export() output missing 'Test Podcast 1'")
	}
	if !strings.Contains(output, "https://example.com/feed1.xml") {
		t.Errorf("Export() output missing feed URL")
	}
	if !strings.Contains(output, `version="2.0"`) {
		t.Errorf("Export() output missing OPML version")
	}
}

func TestImport(t *testing.T) {
	opmlData := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Test Subscriptions</title></head>
  <body>
    <outline type="rss" text="Test Podcast 1" title="Test Podcast 1" xmlUrl="https://example.com/feed1.xml" />
    <outline type="rss" text="Test Podcast 2" xmlUrl="https://example.com/feed2.xml" />
    <outline type="rss" text="No URL" />
  </body>
</opml>`

	subs, err := Import(strings.NewReader(opmlData))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("Import() returned %d subscriptions, expected 2", len(subs))
	}
	if subs[0].Title != "Test Podcast 1" {
		t.Errorf("subs[0].Title = %q", subs[0].Title)
	}
	if subs[1].Title != "Test Podcast 2" {
		t.Errorf("subs[1].Title = %q, want text fallback", subs[1].Title)
	}
}

func TestImportNestedOutlinesAndDuplicates(t *testing.T) {
	opmlData := `<opml version="2.0"><body>
  <outline text="Tech">
    <outline type="rss" text="Inner" xmlUrl="https://example.com/inner.xml" />
    <outline type="rss" text="Inner Again" xmlUrl="https://example.com/inner.xml" />
  </outline>
  <outline type="rss" text="Top" xmlUrl="https://example.com/top.xml" />
</body></opml>`

	subs, err := Import(strings.NewReader(opmlData))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("Import() returned %d subscriptions, expected 2", len(subs))
	}
	if subs[0].FeedURL != "https://example.com/inner.xml" || subs[1].FeedURL != "https://example.com/top.xml" {
		t.Errorf("unexpected subscriptions: %+v", subs)
	}
}

func TestImportMalformedDocument(t *testing.T) {
	if _, err := Import(strings.NewReader("<opml><body>")); err == nil {
		t.Fatal("Import() succeeded on malformed document")
	}
}
