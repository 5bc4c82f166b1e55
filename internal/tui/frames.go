package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// frameKind tags the views that can sit on the navigation stack. The root
// podcast list is implicit: an empty stack means the root view is active.
type frameKind int

const (
	framePodcastInfo frameKind = iota
	frameAddPodcast
	frameEpisodeList
	frameEpisodeInfo
	frameUpdateProgress
	frameErrorInfo
)

// frame is one entry on the navigation stack, carrying only the selection
// context its view needs.
type frame struct {
	kind    frameKind
	podcast int             // index into the podcast collection
	episode int             // index into the selected podcast's episodes
	scroll  int             // first visible line for long detail views
	input   textinput.Model // AddPodcast URL buffer
	message string          // ErrorInfo text
}

// frameStack is the ordered stack of navigation frames; the top frame
// decides what key input means.
type frameStack struct {
	frames []frame
}

// top returns the active frame, or nil when the root view is active.
func (s *frameStack) top() *frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

func (s *frameStack) push(f frame) {
	s.frames = append(s.frames, f)
}

// pop removes the active frame. Popping the empty stack is a no-op: Escape
// on the root view does nothing.
func (s *frameStack) pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// remove drops the topmost frame of the given kind wherever it sits;
// frames stacked above it stay in place.
func (s *frameStack) remove(kind frameKind) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind == kind {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return
		}
	}
}

func (s *frameStack) depth() int {
	return len(s.frames)
}

func newAddPodcastFrame() frame {
	input := textinput.New()
	input.Placeholder = "https://example.com/feed.xml"
	input.Prompt = ""
	input.CharLimit = 512
	input.Focus()
	return frame{kind: frameAddPodcast, input: input}
}

func newErrorFrame(message string) frame {
	return frame{kind: frameErrorInfo, message: message}
}
