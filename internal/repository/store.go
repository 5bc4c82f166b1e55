package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"teapod/internal/domain"
)

// feedFileName is the per-podcast metadata document inside the podcast's
// directory. Downloaded audio files live next to it.
const feedFileName = "feed.json"

// ErrUnsupportedFormat is returned for enclosure MIME types the player
// cannot decode. Only audio/mpeg is supported.
var ErrUnsupportedFormat = errors.New("audio format not supported")

var invalidPathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store persists podcasts as one JSON document per podcast directory under
// a root data directory. It does no network I/O.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the data directory the store operates on.
func (s *Store) Root() string {
	return s.root
}

// ListPersisted loads every persisted podcast from the data directory. A
// record that cannot be read or decoded is a hard error: silently skipping
// it would drop a subscription without the user ever seeing a problem. A
// missing data directory is an empty collection, not an error.
func (s *Store) ListPersisted() ([]domain.Podcast, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan data directory: %w", err)
	}

	var podcasts []domain.Podcast
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		recordPath := filepath.Join(s.root, entry.Name(), feedFileName)
		data, err := os.ReadFile(recordPath)
		if err != nil {
			return nil, fmt.Errorf("read feed record %s: %w", entry.Name(), err)
		}
		var podcast domain.Podcast
		if err := json.Unmarshal(data, &podcast); err != nil {
			return nil, fmt.Errorf("decode feed record %s: %w", entry.Name(), err)
		}
		podcasts = append(podcasts, podcast)
	}
	return podcasts, nil
}

// Save writes the podcast's metadata document, overwriting any previous
// version. The document is written to a temporary file and renamed into
// place. If the podcast directory was created by this call and the write
// fails, the directory is removed again so a failed subscription leaves no
// trace on disk.
func (s *Store) Save(podcast domain.Podcast) error {
	dir := s.PodcastDir(podcast)

	created := false
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		created = true
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create podcast directory: %w", err)
	}

	err := writeRecord(filepath.Join(dir, feedFileName), podcast)
	if err != nil && created {
		os.RemoveAll(dir)
	}
	return err
}

func writeRecord(path string, podcast domain.Podcast) error {
	data, err := json.MarshalIndent(podcast, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed record: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		// A partial temp file left in a fresh directory would block the
		// directory cleanup in Save and break the next startup scan.
		os.Remove(temp)
		return fmt.Errorf("write feed record: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return fmt.Errorf("write feed record: %w", err)
	}
	return nil
}

// PodcastDir returns the directory holding a podcast's record and cached
// audio, keyed by a filesystem safe form of the title.
func (s *Store) PodcastDir(podcast domain.Podcast) string {
	return filepath.Join(s.root, safeFilename(podcast.Title, "podcast"))
}

// AudioCachePath returns the deterministic cache location for an episode's
// audio. The extension follows the enclosure MIME type; anything but
// audio/mpeg is rejected.
func (s *Store) AudioCachePath(podcast domain.Podcast, episode domain.Episode) (string, error) {
	if episode.AudioMimeType != "audio/mpeg" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, episode.AudioMimeType)
	}
	name := safeFilename(episode.Title, "episode") + ".mp3"
	return filepath.Join(s.PodcastDir(podcast), name), nil
}

func safeFilename(value, fallback string) string {
	cleaned := invalidPathChars.ReplaceAllString(strings.TrimSpace(value), "_")
	cleaned = strings.Trim(cleaned, "._- ")
	if cleaned == "" {
		return fallback
	}
	if len(cleaned) > 128 {
		cleaned = cleaned[:128]
	}
	return cleaned
}
