package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"teapod/internal/domain"
	"teapod/internal/repository"
)

// Service caches episode audio on demand. A cache file is immutable once
// written: its existence alone is enough to skip a re-download.
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

// EnsureEpisodeAudio returns the cache path for the episode's audio,
// downloading the full file first if it is not cached yet. The download is
// written to a partial file and renamed into place on completion, so the
// existence check never observes a half-written file.
func (s *Service) EnsureEpisodeAudio(ctx context.Context, podcast domain.Podcast, episode domain.Episode) (string, error) {
	finalPath, err := s.store.AudioCachePath(podcast, episode)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(finalPath); err == nil {
		return finalPath, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if err := s.downloadTo(ctx, episode.AudioURL, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

func (s *Service) downloadTo(ctx context.Context, url, finalPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if ua := strings.TrimSpace(s.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download audio failed: %s", resp.Status)
	}

	partialPath := finalPath + ".partial"
	file, err := os.OpenFile(partialPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(partialPath)
		return fmt.Errorf("download audio: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(partialPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(partialPath)
		return err
	}

	if err := os.Rename(partialPath, finalPath); err != nil {
		os.Remove(partialPath)
		return err
	}
	return nil
}
