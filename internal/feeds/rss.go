package feeds

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"teapod/internal/domain"
)

// ErrMissingChannel is returned when the document has no channel element.
var ErrMissingChannel = errors.New("rss: missing channel element")

// MissingFieldError reports a required element that is absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("rss: missing %s", e.Field)
}

// MissingAttributeError reports a required enclosure attribute that is absent.
type MissingAttributeError struct {
	Attr string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("rss: enclosure missing %s attribute", e.Attr)
}

// MalformedDateError reports a pubDate that is not a valid RFC 2822 date.
// Malformed dates are always a hard error, never silently defaulted: a made
// up date would corrupt display order without any signal to the user.
type MalformedDateError struct {
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("rss: malformed pubDate %q", e.Value)
}

// MalformedNumberError reports an enclosure length that is not an integer.
type MalformedNumberError struct {
	Value string
}

func (e *MalformedNumberError) Error() string {
	return fmt.Sprintf("rss: malformed enclosure length %q", e.Value)
}

// dateLayouts are the RFC 2822 shapes seen in real feeds, with and without
// a zone name and with single digit days.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// Parse turns raw RSS 2.0 text into a Podcast. It is a pure transform: no
// network, no filesystem. The caller records the source URL. One malformed
// item fails the whole feed; item order is preserved from the document.
func Parse(raw string) (domain.Podcast, error) {
	var doc rssDocument
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.Podcast{}, fmt.Errorf("rss: decode document: %w", err)
	}
	if doc.Channel == nil {
		return domain.Podcast{}, ErrMissingChannel
	}

	channel := doc.Channel
	title, err := requiredText(channel.Title, "channel title")
	if err != nil {
		return domain.Podcast{}, err
	}

	podcast := domain.Podcast{
		Title:       title,
		Description: optionalText(channel.Description),
		Episodes:    make([]domain.Episode, 0, len(channel.Items)),
	}

	for _, item := range channel.Items {
		episode, err := parseItem(item)
		if err != nil {
			return domain.Podcast{}, err
		}
		podcast.Episodes = append(podcast.Episodes, episode)
	}

	return podcast, nil
}

func parseItem(item rssItem) (domain.Episode, error) {
	title, err := requiredText(item.Title, "item title")
	if err != nil {
		return domain.Episode{}, err
	}

	date, err := parseDate(item.PubDate)
	if err != nil {
		return domain.Episode{}, err
	}

	if item.Enclosure == nil {
		return domain.Episode{}, &MissingFieldError{Field: "enclosure"}
	}
	audioURL, err := requiredAttr(item.Enclosure.URL, "url")
	if err != nil {
		return domain.Episode{}, err
	}
	mimeType, err := requiredAttr(item.Enclosure.Type, "type")
	if err != nil {
		return domain.Episode{}, err
	}

	var size int64
	if length := strings.TrimSpace(item.Enclosure.Length); length != "" {
		size, err = strconv.ParseInt(length, 10, 64)
		if err != nil {
			return domain.Episode{}, &MalformedNumberError{Value: length}
		}
	}

	return domain.Episode{
		Title:         title,
		Description:   optionalText(item.Description),
		Date:          date,
		AudioURL:      audioURL,
		AudioMimeType: mimeType,
		AudioSize:     size,
	}, nil
}

func parseDate(value *string) (string, error) {
	if value == nil {
		return "", &MissingFieldError{Field: "item pubDate"}
	}
	trimmed := strings.TrimSpace(*value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", &MalformedDateError{Value: trimmed}
}

func requiredText(value *string, field string) (string, error) {
	if value == nil {
		return "", &MissingFieldError{Field: field}
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return "", &MissingFieldError{Field: field}
	}
	return trimmed, nil
}

func optionalText(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func requiredAttr(value *string, attr string) (string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "", &MissingAttributeError{Attr: attr}
	}
	return strings.TrimSpace(*value), nil
}

type rssDocument struct {
	XMLName xml.Name    `xml:"rss"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       *string   `xml:"title"`
	Description *string   `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       *string       `xml:"title"`
	Description *string       `xml:"description"`
	PubDate     *string       `xml:"pubDate"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL    *string `xml:"url,attr"`
	Type   *string `xml:"type,attr"`
	Length string  `xml:"length,attr"`
}
