package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"teapod/internal/domain"
	"teapod/internal/feeds"
	"teapod/internal/opml"
	"teapod/internal/repository"
)

var (
	ErrMissingFeedURL = errors.New("feed URL cannot be empty")
	ErrDuplicateFeed  = errors.New("already subscribed to this feed")

	ErrNoSubscriptionsToExport = errors.New("no subscriptions to export")
	ErrNoSubscriptionsInOPML   = errors.New("no subscriptions found in OPML file")
)

// NetworkError wraps a failed feed fetch. Fetches are never retried
// automatically.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError wraps a feed document that could not be parsed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.URL, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// PersistError wraps a failed write of the podcast record.
type PersistError struct {
	URL string
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist %s: %v", e.URL, e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }

// Service orchestrates fetch + parse + persist for podcast feeds. It holds
// no podcast state of its own; the caller owns the collection and passes it
// in where the duplicate rule applies.
type Service struct {
	store      *repository.Store
	httpClient *http.Client
	userAgent  string
}

func NewService(store *repository.Store, client *http.Client, userAgent string) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{store: store, httpClient: client, userAgent: userAgent}
}

// Add subscribes to a new feed. The URL must not already be present in the
// current collection. On any failure nothing is persisted and the
// collection is unchanged.
func (s *Service) Add(ctx context.Context, url string, current []domain.Podcast) (domain.Podcast, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.Podcast{}, ErrMissingFeedURL
	}
	if domain.ContainsURL(current, url) {
		return domain.Podcast{}, ErrDuplicateFeed
	}
	return s.Refresh(ctx, url)
}

// Refresh fetches, parses and persists one feed, returning the fully
// replaced podcast record.
func (s *Service) Refresh(ctx context.Context, url string) (domain.Podcast, error) {
	raw, err := s.fetch(ctx, url)
	if err != nil {
		return domain.Podcast{}, &NetworkError{URL: url, Err: err}
	}

	podcast, err := feeds.Parse(raw)
	if err != nil {
		return domain.Podcast{}, &ParseError{URL: url, Err: err}
	}
	podcast.URL = url

	if err := s.store.Save(podcast); err != nil {
		return domain.Podcast{}, &PersistError{URL: url, Err: err}
	}
	return podcast, nil
}

// RefreshResult is the outcome of refreshing one feed.
type RefreshResult struct {
	URL     string
	Podcast domain.Podcast
	Err     error
}

// RefreshAll refreshes every podcast concurrently, one goroutine per feed.
// Feeds succeed and fail independently; one failure never aborts the others.
// When onResult is non-nil it is invoked as each feed completes, in
// completion order, so callers can show progress; the returned slice holds
// one result per input in input order once all feeds have finished.
func (s *Service) RefreshAll(ctx context.Context, podcasts []domain.Podcast, onResult func(RefreshResult)) []RefreshResult {
	results := make([]RefreshResult, len(podcasts))

	var wg sync.WaitGroup
	for i, podcast := range podcasts {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			updated, err := s.Refresh(ctx, url)
			result := RefreshResult{URL: url, Podcast: updated, Err: err}
			results[i] = result
			if onResult != nil {
				onResult(result)
			}
		}(i, podcast.URL)
	}
	wg.Wait()

	return results
}

func (s *Service) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if ua := strings.TrimSpace(s.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportResult summarises an OPML import.
type ImportResult struct {
	Added   []domain.Podcast
	Skipped int
	Errors  []string
}

// ImportOPML subscribes to every feed listed in an OPML file. Feeds already
// in the collection are skipped, individual failures are collected and the
// remaining feeds continue.
func (s *Service) ImportOPML(ctx context.Context, filePath string, current []domain.Podcast) (ImportResult, error) {
	file, err := os.Open(strings.TrimSpace(filePath))
	if err != nil {
		return ImportResult{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	subs, err := opml.Import(file)
	if err != nil {
		return ImportResult{}, err
	}
	if len(subs) == 0 {
		return ImportResult{}, ErrNoSubscriptionsInOPML
	}

	var result ImportResult
	collection := append([]domain.Podcast(nil), current...)
	for _, sub := range subs {
		podcast, err := s.Add(ctx, sub.FeedURL, collection)
		if err != nil {
			if errors.Is(err, ErrDuplicateFeed) {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sub.FeedURL, err))
			continue
		}
		collection = append(collection, podcast)
		result.Added = append(result.Added, podcast)
	}
	return result, nil
}

// ExportOPML writes the current subscriptions to an OPML file.
func (s *Service) ExportOPML(filePath string, podcasts []domain.Podcast) (int, error) {
	if len(podcasts) == 0 {
		return 0, ErrNoSubscriptionsToExport
	}

	file, err := os.Create(strings.TrimSpace(filePath))
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	subs := make([]opml.Subscription, len(podcasts))
	for i, podcast := range podcasts {
		subs[i] = opml.Subscription{Title: podcast.Title, FeedURL: podcast.URL}
	}
	if err := opml.Export(file, subs); err != nil {
		return 0, err
	}
	return len(subs), nil
}
