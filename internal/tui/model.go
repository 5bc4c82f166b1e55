package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"teapod/internal/config"
	"teapod/internal/domain"
	"teapod/internal/playback"
	"teapod/internal/subscriptions"
	"teapod/internal/theme"
)

// refreshStatus tracks one feed through a refresh-all pass.
type refreshStatus int

const (
	refreshPending refreshStatus = iota
	refreshSucceeded
	refreshFailed
)

// Model is the interactive session controller: it owns the podcast
// collection, the navigation stack and the selection cursors, and turns
// key events into sync and playback operations.
type Model struct {
	ctx    context.Context
	cfg    config.Config
	styles theme.Theme
	sync   *subscriptions.Service
	player *playback.Manager

	podcasts      []domain.Podcast
	podcastCursor int
	episodeCursor int

	stack frameStack

	refresh     map[string]refreshStatus
	refreshCh   chan subscriptions.RefreshResult
	adding      bool
	playPending bool

	readClipboard func() (string, error)

	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, cfg config.Config, sync *subscriptions.Service, player *playback.Manager, podcasts []domain.Podcast) Model {
	return Model{
		ctx:           ctx,
		cfg:           cfg,
		styles:        theme.ForName(cfg.ColorTheme),
		sync:          sync,
		player:        player,
		podcasts:      podcasts,
		refresh:       make(map[string]refreshStatus),
		readClipboard: clipboard.ReadAll,
	}
}

// Run starts the interactive session.
func Run(ctx context.Context, cfg config.Config, sync *subscriptions.Service, player *playback.Manager, podcasts []domain.Podcast) error {
	model := NewModel(ctx, cfg, sync, player, podcasts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	player.Stop()
	return err
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.tickInterval())
}

func (m Model) tickInterval() time.Duration {
	return time.Duration(m.cfg.TickIntervalMS) * time.Millisecond
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		// Repaint only; async results arrive as their own messages.
		return m, tickCmd(m.tickInterval())

	case addFeedResultMsg:
		return m.handleAddResult(msg)

	case feedRefreshedMsg:
		return m.handleFeedRefreshed(msg)

	case playResultMsg:
		m.playPending = false
		if msg.err != nil {
			log.Printf("playback failed: %v", msg.err)
			m.stack.push(newErrorFrame(msg.err.Error()))
			return m, nil
		}
		return m, watchSessionCmd(msg.session)

	case playbackEndedMsg:
		// Only the live session may tear the player down; a stale end
		// notification from a replaced session is ignored.
		if m.player.Session() == msg.session {
			m.player.Stop()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if top := m.stack.top(); top != nil && top.kind == frameAddPodcast {
		return m.handleAddPodcastKey(msg, top)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case " ":
		m.player.TogglePause()
		return m, nil
	case "esc":
		m.stack.pop()
		return m, nil
	}

	top := m.stack.top()
	if top == nil {
		return m.handleRootKey(msg)
	}
	switch top.kind {
	case frameEpisodeList:
		return m.handleEpisodeListKey(msg, top)
	case framePodcastInfo, frameEpisodeInfo:
		return m.handleInfoKey(msg, top)
	}
	// UpdateProgress and ErrorInfo react to Escape only.
	return m, nil
}

func (m Model) handleRootKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.podcastCursor = moveCursor(m.podcastCursor, 1, len(m.podcasts))
	case "k", "up":
		m.podcastCursor = moveCursor(m.podcastCursor, -1, len(m.podcasts))
	case "enter":
		if frame, ok := m.episodeListFrame(); ok {
			m.episodeCursor = 0
			m.stack.push(frame)
		}
	case "i":
		if len(m.podcasts) > 0 {
			m.stack.push(frame{kind: framePodcastInfo, podcast: m.podcastCursor})
		}
	case "a":
		m.stack.push(newAddPodcastFrame())
	case "u":
		return m.startRefreshAll()
	}
	return m, nil
}

// episodeListFrame builds an EpisodeList frame for the current podcast
// selection. Pushing a list frame without a selection is refused.
func (m Model) episodeListFrame() (frame, bool) {
	if len(m.podcasts) == 0 || m.podcastCursor >= len(m.podcasts) {
		return frame{}, false
	}
	return frame{kind: frameEpisodeList, podcast: m.podcastCursor}, true
}

func (m Model) handleEpisodeListKey(msg tea.KeyMsg, top *frame) (tea.Model, tea.Cmd) {
	podcast := m.podcasts[top.podcast]
	switch msg.String() {
	case "j", "down":
		m.episodeCursor = moveCursor(m.episodeCursor, 1, len(podcast.Episodes))
	case "k", "up":
		m.episodeCursor = moveCursor(m.episodeCursor, -1, len(podcast.Episodes))
	case "enter":
		if len(podcast.Episodes) == 0 || m.playPending {
			return m, nil
		}
		m.playPending = true
		return m, m.playEpisodeCmd(podcast, podcast.Episodes[m.episodeCursor])
	case "i":
		if len(podcast.Episodes) > 0 {
			m.stack.push(frame{kind: frameEpisodeInfo, podcast: top.podcast, episode: m.episodeCursor})
		}
	}
	return m, nil
}

func (m Model) handleInfoKey(msg tea.KeyMsg, top *frame) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		top.scroll++
	case "k", "up":
		if top.scroll > 0 {
			top.scroll--
		}
	}
	return m, nil
}

func (m Model) handleAddPodcastKey(msg tea.KeyMsg, top *frame) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Backing out never cancels an already issued fetch; it only
		// changes what is displayed.
		m.stack.pop()
		return m, nil
	case "enter":
		url := strings.TrimSpace(top.input.Value())
		if url == "" || m.adding {
			return m, nil
		}
		m.adding = true
		return m, m.addFeedCmd(url)
	case "p":
		// The one reserved key inside the form: paste replaces the
		// whole buffer.
		text, err := m.readClipboard()
		if err != nil {
			m.stack.push(newErrorFrame(fmt.Sprintf("clipboard: %v", err)))
			return m, nil
		}
		top.input.SetValue(strings.TrimSpace(text))
		top.input.CursorEnd()
		return m, nil
	}

	var cmd tea.Cmd
	top.input, cmd = top.input.Update(msg)
	return m, cmd
}

func (m Model) handleAddResult(msg addFeedResultMsg) (tea.Model, tea.Cmd) {
	m.adding = false
	if msg.err != nil {
		log.Printf("add feed failed: %v", msg.err)
		m.stack.push(newErrorFrame(addErrorMessage(msg.err)))
		return m, nil
	}

	m.podcasts = append(m.podcasts, msg.podcast)
	m.podcastCursor = len(m.podcasts) - 1
	// The form may sit under an error popup; it is done either way.
	m.stack.remove(frameAddPodcast)
	return m, nil
}

func addErrorMessage(err error) string {
	if err == subscriptions.ErrDuplicateFeed {
		return "Already subscribed to this feed."
	}
	return err.Error()
}

func (m Model) startRefreshAll() (tea.Model, tea.Cmd) {
	if len(m.podcasts) == 0 {
		return m, nil
	}
	m.refresh = make(map[string]refreshStatus, len(m.podcasts))
	for _, podcast := range m.podcasts {
		m.refresh[podcast.URL] = refreshPending
	}
	m.refreshCh = make(chan subscriptions.RefreshResult, len(m.podcasts))
	m.stack.push(frame{kind: frameUpdateProgress})
	return m, tea.Batch(m.refreshAllCmd(m.refreshCh), awaitRefreshCmd(m.refreshCh))
}

func (m Model) handleFeedRefreshed(msg feedRefreshedMsg) (tea.Model, tea.Cmd) {
	result := msg.result
	if result.Err != nil {
		log.Printf("refresh %s failed: %v", result.URL, result.Err)
		m.refresh[result.URL] = refreshFailed
		return m, m.awaitNextRefresh()
	}

	m.refresh[result.URL] = refreshSucceeded
	for i := range m.podcasts {
		if m.podcasts[i].URL == result.URL {
			m.podcasts[i] = result.Podcast
			m.dropStaleEpisodeFrames(i)
			break
		}
	}
	return m, m.awaitNextRefresh()
}

// awaitNextRefresh keeps draining completions until every feed has reported.
func (m *Model) awaitNextRefresh() tea.Cmd {
	for _, status := range m.refresh {
		if status == refreshPending {
			return awaitRefreshCmd(m.refreshCh)
		}
	}
	m.refreshCh = nil
	return nil
}

// dropStaleEpisodeFrames re-validates episode indices after a refresh
// replaced the podcast at the given collection index: an info frame whose
// episode is gone is dropped, and the episode cursor is clamped whenever a
// list frame for that podcast is open. A refresh may shrink or reorder the
// episode list, so every frame referencing it has to be checked, not just
// the top one.
func (m *Model) dropStaleEpisodeFrames(podcastIdx int) {
	episodes := len(m.podcasts[podcastIdx].Episodes)
	clampCursor := false
	kept := m.stack.frames[:0]
	for _, f := range m.stack.frames {
		if f.podcast == podcastIdx {
			if f.kind == frameEpisodeInfo && f.episode >= episodes {
				continue
			}
			if f.kind == frameEpisodeList {
				clampCursor = true
			}
		}
		kept = append(kept, f)
	}
	m.stack.frames = kept
	if clampCursor && m.episodeCursor >= episodes {
		m.episodeCursor = max(episodes-1, 0)
	}
}

func moveCursor(cursor, delta, length int) int {
	if length == 0 {
		return 0
	}
	cursor += delta
	if cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}
