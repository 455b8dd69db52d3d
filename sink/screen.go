package sink

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/tmpim/textreel"
)

// Screen renders grids on a tcell screen. Esc, Ctrl-C and q close the sink:
// the quit callback is invoked and further writes return
// textreel.ErrSinkClosed.
type Screen struct {
	screen tcell.Screen
	onQuit func()

	quit     chan struct{}
	quitOnce sync.Once
	finiOnce sync.Once
	events   chan struct{}
}

// NewScreen initialises the terminal screen. onQuit may be nil.
func NewScreen(onQuit func()) (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	return NewScreenWith(screen, onQuit), nil
}

// NewScreenWith wraps an initialised tcell screen.
func NewScreenWith(screen tcell.Screen, onQuit func()) *Screen {
	s := &Screen{
		screen: screen,
		onQuit: onQuit,
		quit:   make(chan struct{}),
		events: make(chan struct{}),
	}

	screen.HideCursor()
	go s.pollEvents()

	return s
}

func (s *Screen) pollEvents() {
	defer close(s.events)

	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				s.close()
			}
		}
	}
}

func (s *Screen) close() {
	s.quitOnce.Do(func() {
		close(s.quit)
		if s.onQuit != nil {
			s.onQuit()
		}
	})
}

// Done is closed once the viewer asked to quit.
func (s *Screen) Done() <-chan struct{} {
	return s.quit
}

// Reset clears the screen.
func (s *Screen) Reset() error {
	select {
	case <-s.quit:
		return textreel.ErrSinkClosed
	default:
	}

	s.screen.Clear()
	s.screen.Show()
	return nil
}

// WriteFrame draws grid from the top left corner, clipped to the screen.
func (s *Screen) WriteFrame(grid *textreel.GlyphGrid) error {
	select {
	case <-s.quit:
		return textreel.ErrSinkClosed
	default:
	}

	w, h := s.screen.Size()
	for y := 0; y < len(grid.Rows) && y < h; y++ {
		row := grid.Rows[y]
		for x := 0; x < len(row) && x < w; x++ {
			cell := row[x]
			s.screen.SetContent(x, y, rune(cell.Glyph), nil, cellStyle(cell.Token))
		}
	}

	s.screen.Show()
	return nil
}

func cellStyle(token textreel.ColorToken) tcell.Style {
	if token.Mode == textreel.TrueColor {
		return tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(token.RGB.R), int32(token.RGB.G), int32(token.RGB.B)))
	}
	return tcell.StyleDefault.Foreground(tcell.PaletteColor(int(token.Index)))
}

// Close restores the terminal.
func (s *Screen) Close() error {
	s.finiOnce.Do(func() {
		s.screen.Fini()
		<-s.events
	})
	return nil
}
