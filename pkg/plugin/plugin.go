// Package plugin wires the highlight catalog to the text areas of a host: one
// painter and optional overview strip per text area, caret tracking, and the
// user actions.
package plugin

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/hypersearch"
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/manager"
	"github.com/Veraticus/highlight/pkg/overview"
	"github.com/Veraticus/highlight/pkg/painter"
	"github.com/Veraticus/highlight/pkg/tracker"
	"github.com/Veraticus/highlight/pkg/types"
)

type attachment struct {
	painter  *painter.Painter
	overview *overview.Overview
}

// Plugin owns the catalog and its attachments to text areas
type Plugin struct {
	mu        sync.Mutex
	cfg       config.Config
	manager   *manager.Manager
	tracker   *tracker.Tracker
	annotator *hypersearch.Annotator
	areas     map[interfaces.TextArea]*attachment
	focused   interfaces.TextArea
	started   bool
	logger    *slog.Logger
}

// New creates a plugin. st may be nil when the catalog is not persisted.
func New(cfg *config.Config, st manager.Store, logger *slog.Logger) *Plugin {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := manager.New(cfg, st, logger)
	return &Plugin{
		cfg:       *cfg,
		manager:   m,
		tracker:   tracker.New(m),
		annotator: hypersearch.New(m),
		areas:     make(map[interfaces.TextArea]*attachment),
		logger:    logger,
	}
}

// Manager returns the highlight catalog
func (p *Plugin) Manager() *manager.Manager {
	return p.manager
}

// Annotator returns the search result annotator
func (p *Plugin) Annotator() *hypersearch.Annotator {
	return p.annotator
}

// Start loads the persisted catalog and applies the preferences. A catalog
// that cannot be read leaves the plugin started with an empty catalog; the
// load error is returned for reporting.
func (p *Plugin) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	cfg := p.cfg
	p.mu.Unlock()

	loadErr := p.manager.Load()
	p.manager.AddHighlightChangeListener(p.annotator)
	p.manager.PropertiesChanged(&cfg)

	p.logger.Debug("Highlight plugin started", "highlights", p.manager.Len())
	return loadErr
}

// Stop saves the catalog and detaches every text area
func (p *Plugin) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	areas := make([]interfaces.TextArea, 0, len(p.areas))
	for ta := range p.areas {
		areas = append(areas, ta)
	}
	p.mu.Unlock()

	for _, ta := range areas {
		p.UninitTextArea(ta)
	}

	err := p.manager.Save()
	p.manager.RemoveHighlightChangeListener(p.annotator)
	p.manager.Dispose()
	if err != nil {
		return fmt.Errorf("saving highlights: %w", err)
	}
	return nil
}

// InitTextArea attaches a painter and, when enabled, an overview strip to ta.
// Calling it again for the same text area returns the existing painter.
func (p *Plugin) InitTextArea(ta interfaces.TextArea) *painter.Painter {
	p.mu.Lock()
	if a, ok := p.areas[ta]; ok {
		p.mu.Unlock()
		return a.painter
	}
	a := &attachment{painter: painter.New(ta, p.manager, painter.OptionsFromConfig(&p.cfg))}
	p.areas[ta] = a
	cfg := p.cfg
	p.mu.Unlock()

	p.manager.AddHighlightChangeListener(a.painter)
	if cfg.Overview {
		p.addOverview(ta, &cfg)
	}
	p.track(ta)
	return a.painter
}

// UninitTextArea detaches everything InitTextArea attached to ta
func (p *Plugin) UninitTextArea(ta interfaces.TextArea) {
	p.mu.Lock()
	a, ok := p.areas[ta]
	delete(p.areas, ta)
	if p.focused == ta {
		p.focused = nil
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	p.manager.RemoveHighlightChangeListener(a.painter)
	if a.overview != nil {
		p.manager.RemoveHighlightChangeListener(a.overview)
	}
}

// Painter returns the painter attached to ta, or nil
func (p *Plugin) Painter(ta interfaces.TextArea) *painter.Painter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.areas[ta]; ok {
		return a.painter
	}
	return nil
}

// Overview returns the overview strip attached to ta, or nil
func (p *Plugin) Overview(ta interfaces.TextArea) *overview.Overview {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.areas[ta]; ok {
		return a.overview
	}
	return nil
}

// TextAreas returns the number of attached text areas
func (p *Plugin) TextAreas() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.areas)
}

func (p *Plugin) addOverview(ta interfaces.TextArea, cfg *config.Config) {
	p.mu.Lock()
	a, ok := p.areas[ta]
	if !ok {
		p.mu.Unlock()
		return
	}
	created := false
	if a.overview == nil {
		a.overview = overview.New(ta, p.manager)
		a.overview.SetOnChange(func() {
			ta.InvalidateLineRange(ta.FirstPhysicalLine(), ta.LastPhysicalLine())
		})
		created = true
	}
	o := a.overview
	p.mu.Unlock()

	if cfg.OverviewSameColor {
		o.SetOverviewColor(nil)
	} else {
		o.SetOverviewColor(&cfg.OverviewColor)
	}
	if created {
		p.manager.AddHighlightChangeListener(o)
	}
}

func (p *Plugin) removeOverview(ta interfaces.TextArea) {
	p.mu.Lock()
	a, ok := p.areas[ta]
	if !ok || a.overview == nil {
		p.mu.Unlock()
		return
	}
	o := a.overview
	a.overview = nil
	p.mu.Unlock()

	p.manager.RemoveHighlightChangeListener(o)
}

// HandlePropertiesChanged applies new preferences to every attached text area
// and then to the catalog. The implicit highlights are derived again from the
// focused text area, since the caret preferences shape their patterns.
func (p *Plugin) HandlePropertiesChanged(cfg *config.Config) {
	p.mu.Lock()
	p.cfg = *cfg
	areas := make(map[interfaces.TextArea]*painter.Painter, len(p.areas))
	for ta, a := range p.areas {
		areas[ta] = a.painter
	}
	p.mu.Unlock()

	opts := painter.OptionsFromConfig(cfg)
	for ta, pt := range areas {
		pt.SetOptions(opts)
		if cfg.Overview {
			p.addOverview(ta, cfg)
		} else {
			p.removeOverview(ta)
		}
	}

	p.manager.PropertiesChanged(cfg)

	p.mu.Lock()
	focused := p.focused
	p.mu.Unlock()
	if focused != nil {
		p.tracker.CaretUpdate(focused)
	}
}

// HandleBufferClosed drops the buffer-scoped highlights of id
func (p *Plugin) HandleBufferClosed(id types.BufferID) {
	p.manager.BufferClosed(id)
}

// HandleCaretUpdate follows the caret and selection of ta
func (p *Plugin) HandleCaretUpdate(ta interfaces.TextArea) bool {
	return p.track(ta)
}

// HandleEditPaneChanged follows the caret of the newly focused text area
func (p *Plugin) HandleEditPaneChanged(ta interfaces.TextArea) bool {
	return p.track(ta)
}

// track makes ta the focused text area and follows its caret
func (p *Plugin) track(ta interfaces.TextArea) bool {
	p.mu.Lock()
	p.focused = ta
	p.mu.Unlock()
	return p.tracker.CaretUpdate(ta)
}
