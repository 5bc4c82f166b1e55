package playback

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"

	"teapod/internal/domain"
	"teapod/internal/downloads"
)

// Device is the exclusive audio output the platform provides. The real
// implementation is the beep speaker; tests inject a silent one.
type Device interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// DecodeFunc opens an encoded audio stream. It takes ownership of the
// reader; the returned streamer's Close releases it.
type DecodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Dependencies allows tests to swap the audio device and decoder.
type Dependencies struct {
	Device Device
	Decode DecodeFunc
}

// Session is the single live playback instance. All transport queries go
// through the underlying decode handle; nothing is cached separately.
type Session struct {
	Title    string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	duration time.Duration
	device   Device
	done     chan struct{}
	doneOnce sync.Once
}

// Manager owns at most one Session at a time. Play runs on a bubbletea
// command goroutine while pause toggles come from the update loop, so the
// session slot is mutex guarded.
type Manager struct {
	downloads *downloads.Service
	device    Device
	decode    DecodeFunc

	mu      sync.Mutex
	session *Session
}

func NewManager(dl *downloads.Service) *Manager {
	return NewManagerWithDependencies(dl, Dependencies{})
}

func NewManagerWithDependencies(dl *downloads.Service, deps Dependencies) *Manager {
	device := deps.Device
	if device == nil {
		device = speakerDevice{}
	}
	decode := deps.Decode
	if decode == nil {
		decode = mp3.Decode
	}
	return &Manager{downloads: dl, device: device, decode: decode}
}

// Play ensures the episode's audio is cached, opens it and starts playback
// immediately. An active session is torn down first; the output device is
// exclusive, so there is never more than one session.
func (m *Manager) Play(ctx context.Context, podcast domain.Podcast, episode domain.Episode) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()

	path, err := m.downloads.EnsureEpisodeAudio(ctx, podcast, episode)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}

	streamer, format, err := m.decode(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	// Length is an estimate for VBR files and may be unavailable; an
	// unknown total duration is reported as zero rather than failing.
	var duration time.Duration
	if n := streamer.Len(); n > 0 {
		duration = format.SampleRate.D(n)
	}

	if err := m.device.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		streamer.Close()
		return nil, fmt.Errorf("init audio device: %w", err)
	}

	session := &Session{
		Title:    episode.Title,
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
		duration: duration,
		device:   m.device,
		done:     make(chan struct{}),
	}
	m.device.Play(beep.Seq(session.ctrl, beep.Callback(session.finish)))

	m.session = session
	return session, nil
}

// Session returns the live session, or nil when stopped.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Stop tears down the live session: output stopped, decode handle released.
// Safe to call with no session.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.session == nil {
		return
	}
	m.device.Clear()
	m.session.streamer.Close()
	// Clear drops the queued end-of-stream callback, so a torn down session
	// signals its watchers here instead.
	m.session.finish()
	m.session = nil
}

// TogglePause flips between paused and playing. No-op without a session.
func (m *Manager) TogglePause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return
	}
	m.device.Lock()
	m.session.ctrl.Paused = !m.session.ctrl.Paused
	m.device.Unlock()
}

// Duration is the total stream duration, zero when unknown.
func (s *Session) Duration() time.Duration {
	return s.duration
}

// Position queries the decode handle for the current playback position.
func (s *Session) Position() time.Duration {
	s.device.Lock()
	defer s.device.Unlock()
	return s.format.SampleRate.D(s.streamer.Position())
}

// IsPaused reports whether the session is paused.
func (s *Session) IsPaused() bool {
	s.device.Lock()
	defer s.device.Unlock()
	return s.ctrl.Paused
}

// Done is closed when the stream plays to its end or the session is torn
// down, whichever comes first.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// speakerDevice adapts the process-wide beep speaker to the Device
// interface.
type speakerDevice struct{}

func (speakerDevice) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerDevice) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerDevice) Clear()               { speaker.Clear() }
func (speakerDevice) Lock()                { speaker.Lock() }
func (speakerDevice) Unlock()              { speaker.Unlock() }
