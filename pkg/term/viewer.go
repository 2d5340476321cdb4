package term

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/plugin"
	"github.com/Veraticus/highlight/pkg/types"
	"github.com/Veraticus/highlight/pkg/watcher"
)

// DefaultBackground is the color highlights blend over on cells that use the
// terminal's default background
var DefaultBackground = types.RGB(0x1e, 0x1e, 0x1e)

// search is the viewer's last '/' search
type search struct {
	text       string
	regex      bool
	ignoreCase bool
}

func (s *search) SearchString() string { return s.text }
func (s *search) Regexp() bool { return s.regex }
func (s *search) IgnoreCase() bool { return s.ignoreCase }

// propertiesEvent carries reloaded preferences to the event loop
type propertiesEvent struct {
	tcell.EventTime
	cfg *config.Config
	err error
}

// quitEvent stops the event loop
type quitEvent struct {
	tcell.EventTime
}

// Viewer is an interactive read-only file viewer painting highlights
type Viewer struct {
	screen tcell.Screen
	plugin *plugin.Plugin
	area   *TextArea
	buffer *Buffer
	logger *slog.Logger

	style    tcell.Style
	selected tcell.Style
	base     types.Color
	scope    types.Scope
	search   search

	inCommand bool
	command   []rune
	status    string
	dirty     bool
	quit      bool
}

// NewViewer creates a viewer showing buffer on screen. New highlights get
// the permanent scope until changed with :scope.
func NewViewer(screen tcell.Screen, p *plugin.Plugin, buffer *Buffer, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		screen:   screen,
		plugin:   p,
		area:     NewTextArea(buffer),
		buffer:   buffer,
		logger:   logger,
		style:    tcell.StyleDefault,
		selected: tcell.StyleDefault.Reverse(true),
		base:     DefaultBackground,
		scope:    types.ScopePermanent,
		dirty:    true,
	}
}

// SetBackground sets the color highlights blend over
func (v *Viewer) SetBackground(c types.Color) {
	v.base = c
	v.dirty = true
}

// TextArea returns the viewer's text area
func (v *Viewer) TextArea() *TextArea {
	return v.area
}

// Run attaches the viewer to the plugin and processes events until :q or
// until ctx is done. The screen must be initialized.
func (v *Viewer) Run(ctx context.Context) error {
	v.plugin.InitTextArea(v.area)
	defer func() {
		v.plugin.UninitTextArea(v.area)
		v.plugin.HandleBufferClosed(v.buffer.ID())
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ev := &quitEvent{}
			ev.SetEventNow()
			_ = v.screen.PostEvent(ev)
		case <-stop:
		}
	}()

	for !v.quit {
		v.Draw()
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		v.HandleEvent(ev)
	}
	return nil
}

// WatchPreferences reloads the preferences from path whenever it changes and
// applies them on the event loop. The returned function stops watching.
func (v *Viewer) WatchPreferences(path string) (func(), error) {
	w, err := watcher.New(watcher.Config{Path: path, DebounceDur: watcher.DefaultDebounce, Logger: v.logger})
	if err != nil {
		return nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-changes:
				cfg, err := config.LoadFrom(path)
				ev := &propertiesEvent{cfg: cfg, err: err}
				ev.SetEventNow()
				if postErr := v.screen.PostEvent(ev); postErr != nil {
					v.logger.Warn("Dropped preferences reload", "error", postErr)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = w.Stop()
	}, nil
}

// HandleEvent processes one screen event
func (v *Viewer) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if v.inCommand {
			v.handleCommandKey(ev)
		} else {
			v.status = ""
			v.handleKey(ev)
		}
		v.dirty = true
	case *tcell.EventResize:
		v.screen.Sync()
		v.dirty = true
	case *propertiesEvent:
		if ev.err != nil {
			v.setStatus("Preferences not reloaded: %v", ev.err)
			return
		}
		v.plugin.HandlePropertiesChanged(ev.cfg)
		v.setStatus("Preferences reloaded")
	case *quitEvent:
		v.quit = true
	}
}

// Quit reports whether the viewer was asked to exit
func (v *Viewer) Quit() bool {
	return v.quit
}

// Status returns the status line message
func (v *Viewer) Status() string {
	return v.status
}

func (v *Viewer) setStatus(format string, args ...any) {
	v.status = fmt.Sprintf(format, args...)
	v.dirty = true
}

func (v *Viewer) handleKey(ev *tcell.EventKey) {
	extend := ev.Modifiers()&tcell.ModShift != 0
	caret := v.area.CaretPosition()

	switch ev.Key() {
	case tcell.KeyLeft:
		v.area.MoveCaret(caret-1, extend)
	case tcell.KeyRight:
		v.area.MoveCaret(caret+1, extend)
	case tcell.KeyUp:
		v.area.MoveLines(-1, extend)
	case tcell.KeyDown:
		v.area.MoveLines(1, extend)
	case tcell.KeyPgUp:
		v.area.MoveLines(-v.area.PageSize(), extend)
	case tcell.KeyPgDn:
		v.area.MoveLines(v.area.PageSize(), extend)
	case tcell.KeyHome:
		v.area.MoveToLineStart(extend)
	case tcell.KeyEnd:
		v.area.MoveToLineEnd(extend)
	case tcell.KeyEsc:
		v.area.ClearSelection()
	case tcell.KeyCtrlH:
		v.report(v.plugin.HighlightThis(v.area, v.scope))
	case tcell.KeyCtrlW:
		v.report(v.plugin.HighlightEntireWord(v.area, v.scope))
	case tcell.KeyCtrlT:
		if v.plugin.ToggleHighlights() {
			v.setStatus("Highlights on")
		} else {
			v.setStatus("Highlights off")
		}
	case tcell.KeyCtrlX:
		v.plugin.RemoveAllHighlights()
		v.setStatus("Highlights removed")
	case tcell.KeyCtrlC:
		v.quit = true
		return
	case tcell.KeyRune:
		switch ev.Rune() {
		case ':', '/':
			v.inCommand = true
			v.command = []rune{ev.Rune()}
			return
		case 'n':
			v.findNext()
		case 'q':
			v.quit = true
			return
		}
	default:
		return
	}
	v.plugin.HandleCaretUpdate(v.area)
}

func (v *Viewer) report(err error) {
	switch {
	case err == nil:
		v.setStatus("%d highlights", v.plugin.Manager().Len())
	case errors.Is(err, plugin.ErrNoWord):
		v.setStatus("No word at caret")
	default:
		v.setStatus("%v", err)
	}
}

func (v *Viewer) handleCommandKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEsc:
		v.inCommand = false
		v.command = nil
	case tcell.KeyEnter:
		command := string(v.command)
		v.inCommand = false
		v.command = nil
		v.execute(command)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(v.command) > 1 {
			v.command = v.command[:len(v.command)-1]
		} else {
			v.inCommand = false
			v.command = nil
		}
	case tcell.KeyRune:
		v.command = append(v.command, ev.Rune())
	}
}

// execute runs a ':' command or a '/' search
func (v *Viewer) execute(command string) {
	if text, ok := strings.CutPrefix(command, "/"); ok {
		if text != "" {
			v.search = search{text: text}
		}
		v.findNext()
		v.plugin.HandleCaretUpdate(v.area)
		return
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(command, ":"), " ")
	id := v.buffer.ID()
	switch name {
	case "q", "quit":
		v.quit = true
	case "hl":
		v.report(v.plugin.HighlightString(arg, false, false, v.scope, id))
	case "hli":
		v.report(v.plugin.HighlightString(arg, false, true, v.scope, id))
	case "re":
		v.report(v.plugin.HighlightString(arg, true, false, v.scope, id))
	case "rei":
		v.report(v.plugin.HighlightString(arg, true, true, v.scope, id))
	case "hs":
		if v.search.text == "" {
			v.setStatus("No search")
			return
		}
		v.report(v.plugin.HighlightCurrentSearch(&v.search, id, v.scope))
	case "clear":
		v.plugin.RemoveAllHighlights()
		v.setStatus("Highlights removed")
	case "toggle":
		v.plugin.ToggleHighlights()
	case "scope":
		scope, err := types.ParseScope(arg)
		if err != nil {
			v.setStatus("%v", err)
			return
		}
		v.scope = scope
		v.setStatus("New highlights are %s", scope)
	case "export":
		if err := v.plugin.ExportToFile(arg); err != nil {
			v.setStatus("%v", err)
			return
		}
		v.setStatus("Exported to %s", arg)
	case "import":
		n, err := v.plugin.ImportFromFile(arg)
		if err != nil {
			v.setStatus("%v", err)
			return
		}
		v.setStatus("Imported %d highlights", n)
	default:
		v.setStatus("Unknown command: %s", command)
	}
}

// findNext moves the caret past the next occurrence of the search text,
// wrapping at the end of the buffer, and selects it
func (v *Viewer) findNext() {
	if v.search.text == "" {
		return
	}
	runes := v.buffer.Segment(0, v.buffer.Length())
	needle := []rune(v.search.text)
	from := v.area.CaretPosition()

	idx := indexRunes(runes, needle, from)
	if idx < 0 {
		idx = indexRunes(runes, needle, 0)
	}
	if idx < 0 {
		v.setStatus("Not found: %s", v.search.text)
		return
	}
	v.area.Select(idx, idx+len(needle))
}

func indexRunes(haystack, needle []rune, from int) int {
	for i := max(from, 0); i+len(needle) <= len(haystack); i++ {
		if slices.Equal(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// Draw repaints the screen when anything changed since the last call
func (v *Viewer) Draw() {
	areaDirty := v.area.TakeDirty()
	if !v.dirty && !areaDirty {
		return
	}
	v.dirty = false

	width, height := v.screen.Size()
	textHeight := max(height-1, 0)
	ov := v.plugin.Overview(v.area)
	textWidth := width
	if ov != nil {
		textWidth = max(width-1, 0)
	}
	v.area.SetBounds(0, textWidth, textHeight)
	v.area.TakeDirty()

	v.screen.Fill(' ', v.style)

	top := v.area.FirstPhysicalLine()
	lines := min(textHeight, v.buffer.LineCount()-top)
	physical := make([]int, 0, lines)
	starts := make([]int, 0, lines)
	ends := make([]int, 0, lines)
	for row := 0; row < lines; row++ {
		line := top + row
		v.drawLine(row, line, textWidth)
		physical = append(physical, line)
		starts = append(starts, v.buffer.LineStartOffset(line))
		ends = append(ends, v.buffer.LineEndOffset(line))
	}

	if p := v.plugin.Painter(v.area); p != nil && lines > 0 {
		g := NewGraphics(v.screen, types.Rect{W: textWidth, H: textHeight}, v.base)
		p.PaintScreenLineRange(g, 0, lines-1, physical, starts, ends, 0, 1)
	}
	if ov != nil && width > 0 {
		g := NewGraphics(v.screen, types.Rect{X: width - 1, W: 1, H: textHeight}, v.base)
		ov.Paint(g, width-1, 1, textHeight)
	}

	v.drawStatusLine(width, height)
	v.screen.Show()
}

func (v *Viewer) drawLine(row, line, width int) {
	text := v.buffer.Line(line)
	lineStart := v.buffer.LineStartOffset(line)
	left := v.area.Left()

	col := 0
	for i, r := range text {
		w := cellWidth(r, col)
		style := v.style
		if _, ok := v.area.SelectionAtOffset(lineStart + i); ok {
			style = v.selected
		}
		if r == '\t' {
			for k := 0; k < w; k++ {
				v.put(col+k-left, row, ' ', style, width)
			}
		} else {
			v.put(col-left, row, r, style, width)
		}
		col += w
		if col-left >= width {
			break
		}
	}
}

func (v *Viewer) put(x, y int, r rune, style tcell.Style, width int) {
	if x >= 0 && x < width {
		v.screen.SetContent(x, y, r, nil, style)
	}
}

func (v *Viewer) drawStatusLine(width, height int) {
	if height == 0 {
		return
	}
	y := height - 1
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, y, ' ', nil, v.style.Reverse(true))
	}

	content := v.status
	if v.inCommand {
		content = string(v.command)
	} else if content == "" {
		content = v.summary()
	}
	x := 0
	for _, r := range content {
		if x >= width {
			break
		}
		v.screen.SetContent(x, y, r, nil, v.style.Reverse(true))
		x += cellWidth(r, x)
	}

	if v.inCommand {
		v.screen.ShowCursor(min(Columns(v.command), width-1), y)
		return
	}
	caretLine := v.area.CaretLine()
	offset := v.area.CaretPosition() - v.buffer.LineStartOffset(caretLine)
	if p, ok := v.area.OffsetToXY(caretLine, offset); ok {
		v.screen.ShowCursor(p.X, p.Y)
	} else {
		v.screen.HideCursor()
	}
}

func (v *Viewer) summary() string {
	name := v.buffer.Path()
	if name == "" {
		name = "[buffer]"
	}
	caretLine := v.area.CaretLine()
	col := v.area.CaretPosition() - v.buffer.LineStartOffset(caretLine)
	state := "on"
	if !v.plugin.IsHighlightEnabled() {
		state = "off"
	}
	return fmt.Sprintf("%s  %d:%d  %d highlights (%s)  %s", name, caretLine+1, col+1, v.plugin.Manager().Len(), state, v.scope)
}
