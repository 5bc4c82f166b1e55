package domain

// Podcast is one subscribed feed together with its most recently fetched
// episode list. Identity is the feed URL; a refresh replaces the episode
// list wholesale rather than merging it.
type Podcast struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Episodes    []Episode `json:"episodes"`
}

// Episode is immutable once parsed. Within a podcast an episode is
// identified by its position in the list, which is stable only until the
// next refresh.
type Episode struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	AudioURL      string `json:"audio_url"`
	AudioMimeType string `json:"audio_mime_type"`
	AudioSize     int64  `json:"audio_size,omitempty"`
}

// ContainsURL reports whether a feed with the given URL is already in the
// collection. Feed URLs are unique across subscriptions.
func ContainsURL(podcasts []Podcast, url string) bool {
	for _, p := range podcasts {
		if p.URL == url {
			return true
		}
	}
	return false
}
