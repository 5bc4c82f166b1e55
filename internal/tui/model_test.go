package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"teapod/internal/config"
	"teapod/internal/domain"
	"teapod/internal/playback"
	"teapod/internal/subscriptions"
)

func testModel(podcasts []domain.Podcast) Model {
	m := NewModel(context.Background(), config.Defaults(), nil, playback.NewManager(nil), podcasts)
	m.width = 80
	m.height = 24
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, s := range keys {
		next, _ := m.Update(key(s))
		m = next.(Model)
	}
	return m
}

func twoPodcasts() []domain.Podcast {
	return []domain.Podcast{
		{
			Title: "First",
			URL:   "http://example.com/first.xml",
			Episodes: []domain.Episode{
				{Title: "F1", Date: "2024-01-01", AudioURL: "http://example.com/f1.mp3", AudioMimeType: "audio/mpeg"},
				{Title: "F2", Date: "2024-01-02", AudioURL: "http://example.com/f2.mp3", AudioMimeType: "audio/mpeg"},
				{Title: "F3", Date: "2024-01-03", AudioURL: "http://example.com/f3.mp3", AudioMimeType: "audio/mpeg"},
			},
		},
		{
			Title: "Second",
			URL:   "http://example.com/second.xml",
			Episodes: []domain.Episode{
				{Title: "S1", Date: "2024-02-01", AudioURL: "http://example.com/s1.mp3", AudioMimeType: "audio/mpeg"},
			},
		},
	}
}

func refreshed(url string, episodes ...domain.Episode) feedRefreshedMsg {
	return feedRefreshedMsg{result: subscriptions.RefreshResult{
		URL:     url,
		Podcast: domain.Podcast{Title: "First", URL: url, Episodes: episodes},
	}}
}

func TestEnterOnEmptyCollectionStaysOnRoot(t *testing.T) {
	m := testModel(nil)
	m = press(t, m, "enter")
	if got := m.stack.depth(); got != 0 {
		t.Errorf("expected empty stack, got depth %d", got)
	}
}

func TestNavigationPushAndPop(t *testing.T) {
	m := testModel(twoPodcasts())

	m = press(t, m, "enter")
	top := m.stack.top()
	if top == nil || top.kind != frameEpisodeList {
		t.Fatalf("expected episode list on top, got %+v", top)
	}

	m = press(t, m, "i")
	top = m.stack.top()
	if top == nil || top.kind != frameEpisodeInfo {
		t.Fatalf("expected episode info on top, got %+v", top)
	}

	m = press(t, m, "esc")
	top = m.stack.top()
	if top == nil || top.kind != frameEpisodeList {
		t.Fatalf("expected episode list after pop, got %+v", top)
	}

	m = press(t, m, "esc", "esc")
	if got := m.stack.depth(); got != 0 {
		t.Errorf("expected root after popping everything, got depth %d", got)
	}
}

func TestCursorClampsAtBothEnds(t *testing.T) {
	m := testModel(twoPodcasts())

	m = press(t, m, "k")
	if m.podcastCursor != 0 {
		t.Errorf("cursor moved above first entry: %d", m.podcastCursor)
	}

	m = press(t, m, "j", "j", "j")
	if m.podcastCursor != 1 {
		t.Errorf("cursor moved past last entry: %d", m.podcastCursor)
	}
}

func TestAddSuccessAppendsAndSelects(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "a")
	if top := m.stack.top(); top == nil || top.kind != frameAddPodcast {
		t.Fatalf("expected add frame, got %+v", top)
	}

	added := domain.Podcast{Title: "Third", URL: "http://example.com/third.xml"}
	next, _ := m.Update(addFeedResultMsg{podcast: added})
	m = next.(Model)

	if len(m.podcasts) != 3 {
		t.Fatalf("expected 3 podcasts, got %d", len(m.podcasts))
	}
	if m.podcastCursor != 2 {
		t.Errorf("expected cursor on new podcast, got %d", m.podcastCursor)
	}
	if got := m.stack.depth(); got != 0 {
		t.Errorf("expected add frame popped, got depth %d", got)
	}
	if m.adding {
		t.Error("expected adding flag cleared")
	}
}

func TestAddSuccessRemovesFormUnderErrorPopup(t *testing.T) {
	m := testModel(nil)
	m.readClipboard = func() (string, error) {
		return "", errors.New("no clipboard utility found")
	}

	// Paste failure stacks an error popup above the form while the earlier
	// add request is still in flight.
	m = press(t, m, "a", "p")
	if got := m.stack.depth(); got != 2 {
		t.Fatalf("expected form plus error popup, got depth %d", got)
	}

	added := domain.Podcast{Title: "Third", URL: "http://example.com/third.xml"}
	next, _ := m.Update(addFeedResultMsg{podcast: added})
	m = next.(Model)

	top := m.stack.top()
	if top == nil || top.kind != frameErrorInfo {
		t.Fatalf("expected error popup kept on top, got %+v", top)
	}
	if got := m.stack.depth(); got != 1 {
		t.Errorf("expected the form removed beneath the popup, got depth %d", got)
	}

	m = press(t, m, "esc")
	if got := m.stack.depth(); got != 0 {
		t.Errorf("expected root after dismissing the popup, got depth %d", got)
	}
}

func TestDuplicateAddShowsErrorAndKeepsCollection(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "a")

	next, _ := m.Update(addFeedResultMsg{err: subscriptions.ErrDuplicateFeed})
	m = next.(Model)

	top := m.stack.top()
	if top == nil || top.kind != frameErrorInfo {
		t.Fatalf("expected error frame, got %+v", top)
	}
	if top.message != "Already subscribed to this feed." {
		t.Errorf("unexpected error message: %q", top.message)
	}
	if len(m.podcasts) != 2 {
		t.Errorf("collection changed on failed add: %d", len(m.podcasts))
	}
}

func TestPasteReplacesInputBuffer(t *testing.T) {
	m := testModel(nil)
	m.readClipboard = func() (string, error) {
		return "  http://example.com/pasted.xml\n", nil
	}

	m = press(t, m, "a", "x", "p")
	top := m.stack.top()
	if top == nil || top.kind != frameAddPodcast {
		t.Fatalf("expected add frame, got %+v", top)
	}
	if got := top.input.Value(); got != "http://example.com/pasted.xml" {
		t.Errorf("unexpected input value: %q", got)
	}
}

func TestPasteFailureShowsError(t *testing.T) {
	m := testModel(nil)
	m.readClipboard = func() (string, error) {
		return "", errors.New("no clipboard utility found")
	}

	m = press(t, m, "a", "p")
	top := m.stack.top()
	if top == nil || top.kind != frameErrorInfo {
		t.Fatalf("expected error frame, got %+v", top)
	}
	if !strings.Contains(top.message, "clipboard") {
		t.Errorf("unexpected error message: %q", top.message)
	}
}

func TestTypedCharactersReachTheInput(t *testing.T) {
	m := testModel(nil)
	m = press(t, m, "a", "h", "t", "t")
	top := m.stack.top()
	if got := top.input.Value(); got != "htt" {
		t.Errorf("unexpected input value: %q", got)
	}
}

func TestRefreshTracksEachFeedIndependently(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "u")

	if top := m.stack.top(); top == nil || top.kind != frameUpdateProgress {
		t.Fatalf("expected progress frame, got %+v", top)
	}
	for url, status := range m.refresh {
		if status != refreshPending {
			t.Errorf("expected %s pending, got %d", url, status)
		}
	}

	next, _ := m.Update(refreshed("http://example.com/first.xml",
		domain.Episode{Title: "New", Date: "2024-03-01"}))
	m = next.(Model)
	next, _ = m.Update(feedRefreshedMsg{result: subscriptions.RefreshResult{
		URL: "http://example.com/second.xml",
		Err: errors.New("connection refused"),
	}})
	m = next.(Model)

	if m.refresh["http://example.com/first.xml"] != refreshSucceeded {
		t.Error("expected first feed marked succeeded")
	}
	if m.refresh["http://example.com/second.xml"] != refreshFailed {
		t.Error("expected second feed marked failed")
	}
	if len(m.podcasts[0].Episodes) != 1 || m.podcasts[0].Episodes[0].Title != "New" {
		t.Errorf("expected first podcast replaced, got %+v", m.podcasts[0].Episodes)
	}
	if len(m.podcasts[1].Episodes) != 1 || m.podcasts[1].Episodes[0].Title != "S1" {
		t.Errorf("expected failed feed untouched, got %+v", m.podcasts[1].Episodes)
	}
}

func TestRefreshClampsEpisodeCursorToShrunkList(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "enter", "j", "j")
	if m.episodeCursor != 2 {
		t.Fatalf("expected cursor on third episode, got %d", m.episodeCursor)
	}

	next, _ := m.Update(refreshed("http://example.com/first.xml",
		domain.Episode{Title: "Only", Date: "2024-03-01"}))
	m = next.(Model)

	if m.episodeCursor != 0 {
		t.Errorf("expected cursor clamped to 0, got %d", m.episodeCursor)
	}
}

func TestRefreshDropsStaleEpisodeInfoFrame(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "enter", "j", "j", "i")
	top := m.stack.top()
	if top == nil || top.kind != frameEpisodeInfo || top.episode != 2 {
		t.Fatalf("expected info frame on third episode, got %+v", top)
	}

	next, _ := m.Update(refreshed("http://example.com/first.xml",
		domain.Episode{Title: "Only", Date: "2024-03-01"}))
	m = next.(Model)

	top = m.stack.top()
	if top == nil || top.kind != frameEpisodeList {
		t.Fatalf("expected stale info frame dropped, got %+v", top)
	}
	if m.episodeCursor != 0 {
		t.Errorf("expected cursor clamped to 0, got %d", m.episodeCursor)
	}
	if out := m.View(); !strings.Contains(out, "Only") {
		t.Error("expected replaced episode list rendered")
	}
}

func TestRefreshKeepsEpisodeInfoFrameStillInRange(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "enter", "i")

	next, _ := m.Update(refreshed("http://example.com/first.xml",
		domain.Episode{Title: "Only", Date: "2024-03-01"}))
	m = next.(Model)

	top := m.stack.top()
	if top == nil || top.kind != frameEpisodeInfo || top.episode != 0 {
		t.Fatalf("expected in-range info frame kept, got %+v", top)
	}
	if out := m.View(); !strings.Contains(out, "Only") {
		t.Error("expected refreshed episode rendered in info frame")
	}
}

func TestPlayFailureShowsErrorAndClearsPending(t *testing.T) {
	m := testModel(twoPodcasts())
	m.playPending = true

	next, _ := m.Update(playResultMsg{err: errors.New("decode audio: invalid header")})
	m = next.(Model)

	if m.playPending {
		t.Error("expected pending flag cleared")
	}
	top := m.stack.top()
	if top == nil || top.kind != frameErrorInfo {
		t.Fatalf("expected error frame, got %+v", top)
	}
}

func TestInfoScrollNeverGoesNegative(t *testing.T) {
	m := testModel(twoPodcasts())
	m = press(t, m, "i", "k")
	top := m.stack.top()
	if top == nil || top.kind != framePodcastInfo {
		t.Fatalf("expected podcast info frame, got %+v", top)
	}
	if top.scroll != 0 {
		t.Errorf("expected scroll clamped to 0, got %d", top.scroll)
	}

	m = press(t, m, "j", "j")
	if got := m.stack.top().scroll; got != 2 {
		t.Errorf("expected scroll 2, got %d", got)
	}
}

func TestViewShowsStoppedPlayerWithoutSession(t *testing.T) {
	m := testModel(twoPodcasts())
	out := m.View()
	if !strings.Contains(out, "[Stopped]") {
		t.Error("expected stopped player footer")
	}
	if !strings.Contains(out, "First") {
		t.Error("expected podcast list in root view")
	}
}

func TestQuitKeysEndTheSession(t *testing.T) {
	m := testModel(nil)
	next, cmd := m.Update(key("q"))
	m = next.(Model)
	if !m.quitting || cmd == nil {
		t.Error("expected q to quit from the root view")
	}

	m = testModel(nil)
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if !m.quitting || cmd == nil {
		t.Error("expected ctrl+c to quit everywhere")
	}
}
