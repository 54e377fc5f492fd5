package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// spinnerFrames is a braille scan pattern.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// frameInterval is the animation speed.
const frameInterval = 80 * time.Millisecond

// Spinner shows an animated label on a single terminal line.
type Spinner struct {
	mu           sync.Mutex
	w            io.Writer
	label        string
	state        SpinnerState
	frame        int
	startTime    time.Time
	stop         chan struct{}
	done         chan struct{}
	running      bool
	lastRendered string
}

// NewSpinner returns a spinner that draws label to w.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{w: w, label: label}
}

// Start begins the animation. Calling it twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.render()
	go s.animate()
}

// SetLabel updates the text shown next to the spinner.
func (s *Spinner) SetLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
}

// Label returns the current label.
func (s *Spinner) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Success stops the spinner and leaves a check mark with the final label.
func (s *Spinner) Success(label string) {
	s.finish(SpinnerSuccess, label)
}

// Fail stops the spinner and leaves a cross with the final label.
func (s *Spinner) Fail(label string) {
	s.finish(SpinnerFailed, label)
}

func (s *Spinner) finish(state SpinnerState, label string) {
	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.label = label

	symbol := lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolSuccess)
	if state == SpinnerFailed {
		symbol = lipgloss.NewStyle().Foreground(ColorError).Render(SymbolFail)
	}
	elapsed := lipgloss.NewStyle().Foreground(ColorMuted).Render(formatElapsed(time.Since(s.startTime)))

	s.clearLocked()
	fmt.Fprintf(s.w, "%s %s %s\n", symbol, s.label, elapsed)
}

// halt stops the animation goroutine and waits for it.
func (s *Spinner) halt() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	<-s.done
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.mu.Unlock()
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	color := spinnerColors[(s.frame/2)%len(spinnerColors)]
	line := fmt.Sprintf("%s %s...", lipgloss.NewStyle().Foreground(color).Render(spinnerFrames[s.frame]), s.label)

	s.clearLocked()
	fmt.Fprint(s.w, line)
	s.lastRendered = line
}

// clearLocked blanks the previously drawn line. Callers hold s.mu.
func (s *Spinner) clearLocked() {
	if s.lastRendered == "" {
		return
	}
	fmt.Fprint(s.w, "\r"+strings.Repeat(" ", lipgloss.Width(s.lastRendered))+"\r")
	s.lastRendered = ""
}

// formatElapsed formats a duration for display (e.g., "0.30s", "1.2s").
func formatElapsed(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
