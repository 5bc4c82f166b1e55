package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"teapod/internal/domain"
	"teapod/internal/playback"
	"teapod/internal/subscriptions"
)

// tickMsg drives the render cadence so in-flight work (refresh, download,
// playback position) is reflected without blocking on it.
type tickMsg time.Time

// addFeedResultMsg is the outcome of the single foreground add operation.
type addFeedResultMsg struct {
	podcast domain.Podcast
	err     error
}

// feedRefreshedMsg reports one feed's refresh outcome; feeds complete in
// any order and independently of each other.
type feedRefreshedMsg struct {
	result subscriptions.RefreshResult
}

// playResultMsg is the outcome of a play request, including the download
// and decode steps.
type playResultMsg struct {
	session *playback.Session
	err     error
}

// playbackEndedMsg fires when the live session's stream reaches its end.
type playbackEndedMsg struct {
	session *playback.Session
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) addFeedCmd(url string) tea.Cmd {
	current := append([]domain.Podcast(nil), m.podcasts...)
	return func() tea.Msg {
		podcast, err := m.sync.Add(m.ctx, url, current)
		return addFeedResultMsg{podcast: podcast, err: err}
	}
}

// refreshAllCmd runs the engine's refresh fan-out, forwarding each feed's
// completion through ch as it happens. The channel is buffered for every
// feed, so the fan-out never blocks on the update loop.
func (m Model) refreshAllCmd(ch chan<- subscriptions.RefreshResult) tea.Cmd {
	podcasts := append([]domain.Podcast(nil), m.podcasts...)
	return func() tea.Msg {
		m.sync.RefreshAll(m.ctx, podcasts, func(result subscriptions.RefreshResult) {
			ch <- result
		})
		return nil
	}
}

// awaitRefreshCmd delivers the next completed feed refresh.
func awaitRefreshCmd(ch <-chan subscriptions.RefreshResult) tea.Cmd {
	return func() tea.Msg {
		return feedRefreshedMsg{result: <-ch}
	}
}

func (m Model) playEpisodeCmd(podcast domain.Podcast, episode domain.Episode) tea.Cmd {
	return func() tea.Msg {
		session, err := m.player.Play(m.ctx, podcast, episode)
		return playResultMsg{session: session, err: err}
	}
}

// watchSessionCmd resolves when the session's stream plays to the end.
func watchSessionCmd(session *playback.Session) tea.Cmd {
	return func() tea.Msg {
		<-session.Done()
		return playbackEndedMsg{session: session}
	}
}
