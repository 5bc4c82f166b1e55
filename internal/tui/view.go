package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const footerHeight = 2

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	body := m.bodyView()
	return lipgloss.JoinVertical(lipgloss.Left, body, m.playerView())
}

func (m Model) bodyHeight() int {
	height := m.height - footerHeight
	if height < 1 {
		return 1
	}
	return height
}

func (m Model) bodyView() string {
	top := m.stack.top()
	if top == nil {
		return m.podcastListView()
	}
	switch top.kind {
	case framePodcastInfo:
		return m.podcastInfoView(top)
	case frameAddPodcast:
		return m.addPodcastView(top)
	case frameEpisodeList:
		return m.episodeListView(top)
	case frameEpisodeInfo:
		return m.episodeInfoView(top)
	case frameUpdateProgress:
		return m.updateProgressView()
	case frameErrorInfo:
		return m.centered(m.styles.Popup.Render(
			m.styles.Error.Render("Error") + "\n\n" +
				wrap(top.message, m.popupWidth()) + "\n\n" +
				m.styles.Dim.Render("esc: back")))
	}
	return ""
}

func (m Model) podcastListView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Teapod"))
	b.WriteString("\n\n")

	if len(m.podcasts) == 0 {
		b.WriteString(m.styles.Dim.Render("No subscriptions yet. Press 'a' to add a feed."))
	}
	for i, podcast := range m.podcasts {
		line := fmt.Sprintf("%s %s", podcast.Title, m.styles.Dim.Render(podcast.URL))
		if i == m.podcastCursor {
			b.WriteString(m.styles.Cursor.Render("> " + line))
		} else {
			b.WriteString(m.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("j/k: move · enter: episodes · i: info · a: add · u: update · space: pause · q: quit"))
	if m.adding {
		b.WriteString("\n" + m.styles.Pending.Render("Adding feed..."))
	}
	return fill(b.String(), m.bodyHeight())
}

func (m Model) episodeListView(top *frame) string {
	podcast := m.podcasts[top.podcast]

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(podcast.Title))
	b.WriteString("\n\n")

	if len(podcast.Episodes) == 0 {
		b.WriteString(m.styles.Dim.Render("No episodes in this feed."))
	}
	for i, episode := range podcast.Episodes {
		line := fmt.Sprintf("%s  %s", m.styles.Date.Render(episode.Date), episode.Title)
		if i == m.episodeCursor {
			b.WriteString(m.styles.Cursor.Render("> " + line))
		} else {
			b.WriteString(m.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("j/k: move · enter: play · i: info · esc: back"))
	if m.playPending {
		b.WriteString("\n" + m.styles.Pending.Render("Preparing audio..."))
	}
	return fill(b.String(), m.bodyHeight())
}

func (m Model) podcastInfoView(top *frame) string {
	podcast := m.podcasts[top.podcast]
	body := m.styles.Title.Render(podcast.Title) + "\n" +
		m.styles.Dim.Render(podcast.URL) + "\n\n" +
		m.scrolled(m.styles.Description.Render(wrap(podcast.Description, m.popupWidth())), top.scroll) + "\n\n" +
		m.styles.Dim.Render(fmt.Sprintf("%d episodes · esc: back", len(podcast.Episodes)))
	return m.centered(m.styles.Popup.Render(body))
}

func (m Model) episodeInfoView(top *frame) string {
	episode := m.podcasts[top.podcast].Episodes[top.episode]

	meta := episode.Date
	if episode.AudioSize > 0 {
		meta += fmt.Sprintf(" · %.1f MB", float64(episode.AudioSize)/(1024*1024))
	}

	body := m.styles.Title.Render(episode.Title) + "\n" +
		m.styles.Date.Render(meta) + "\n\n" +
		m.scrolled(m.styles.Description.Render(wrap(episode.Description, m.popupWidth())), top.scroll) + "\n\n" +
		m.styles.Dim.Render("j/k: scroll · esc: back")
	return m.centered(m.styles.Popup.Render(body))
}

func (m Model) addPodcastView(top *frame) string {
	hint := "p: paste · enter: add · esc: cancel"
	if m.adding {
		hint = "Adding feed..."
	}
	body := m.styles.Title.Render("Add Podcast") + "\n\n" +
		top.input.View() + "\n\n" +
		m.styles.Dim.Render(hint)
	return m.centered(m.styles.Popup.Render(body))
}

func (m Model) updateProgressView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Updating feeds"))
	b.WriteString("\n\n")

	for _, podcast := range m.podcasts {
		var status string
		switch m.refresh[podcast.URL] {
		case refreshSucceeded:
			status = m.styles.Done.Render("done")
		case refreshFailed:
			status = m.styles.Failed.Render("failed")
		default:
			status = m.styles.Pending.Render("pending")
		}
		fmt.Fprintf(&b, "  %s %s\n", status, podcast.Title)
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render("esc: back"))
	return fill(b.String(), m.bodyHeight())
}

func (m Model) playerView() string {
	session := m.player.Session()
	if session == nil {
		return m.styles.Player.Render("[Stopped]") + "\n" + m.styles.Dim.Render("--:--:--")
	}

	status := "Playing"
	if session.IsPaused() {
		status = "Paused"
	}
	times := fmt.Sprintf("%s/%s", formatDuration(session.Position()), formatDuration(session.Duration()))
	return m.styles.Player.Render(fmt.Sprintf("[%s] %s", status, session.Title)) + "\n" + m.styles.Dim.Render(times)
}

func (m Model) popupWidth() int {
	width := m.width / 2
	if width < 20 {
		width = 20
	}
	return width
}

func (m Model) centered(popup string) string {
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, popup)
}

// scrolled drops the first offset lines and caps the visible window at the
// configured description height.
func (m Model) scrolled(text string, offset int) string {
	lines := strings.Split(text, "\n")
	if offset > len(lines)-1 {
		offset = len(lines) - 1
	}
	if offset < 0 {
		offset = 0
	}
	lines = lines[offset:]
	if limit := m.cfg.MaxEpisodeDescriptionLines; len(lines) > limit {
		lines = lines[:limit]
	}
	return strings.Join(lines, "\n")
}

func wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}

// fill pads full screen views to a stable height so the player footer does
// not jump while lists change size.
func fill(body string, height int) string {
	lines := strings.Count(body, "\n") + 1
	if lines >= height {
		return body
	}
	return body + strings.Repeat("\n", height-lines)
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
