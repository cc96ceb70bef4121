package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/reels/internal/logging"
	"github.com/abelbrown/reels/internal/media"
	"github.com/abelbrown/reels/internal/otel"
	"github.com/abelbrown/reels/internal/reel"
	"github.com/abelbrown/reels/internal/store"
)

// statusBarHeight is the number of rows below the feed.
const statusBarHeight = 1

// wheelStep is how many rows one wheel notch drags the feed.
const wheelStep = 2.0

// wheelSettle is how long the wheel must be quiet before the drag counts
// as released.
const wheelSettle = 150 * time.Millisecond

const defaultPageSize = 20

var keys = struct {
	Quit    key.Binding
	Next    key.Binding
	Prev    key.Binding
	First   key.Binding
	Last    key.Binding
	Mute    key.Binding
	Like    key.Binding
	Refresh key.Binding
	Debug   key.Binding
}{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Next:    key.NewBinding(key.WithKeys("j", "down", " ")),
	Prev:    key.NewBinding(key.WithKeys("k", "up")),
	First:   key.NewBinding(key.WithKeys("g", "home")),
	Last:    key.NewBinding(key.WithKeys("G", "end")),
	Mute:    key.NewBinding(key.WithKeys("m")),
	Like:    key.NewBinding(key.WithKeys("l")),
	Refresh: key.NewBinding(key.WithKeys("r")),
	Debug:   key.NewBinding(key.WithKeys("D")),
}

// statusReader is implemented by engines that can report playback progress.
type statusReader interface {
	Status(h reel.Handle) media.Status
}

// AppConfig holds the command closures and collaborators for App.
type AppConfig struct {
	Engine   reel.Engine
	Options  reel.Options // Extent is replaced by the terminal height
	PageSize int

	// LoadPage reads up to limit items after position after and answers
	// with PageLoaded.
	LoadPage func(after, limit int) tea.Cmd
	// LoadMedia runs Engine.Load off the event loop and answers with
	// MediaReady.
	LoadMedia func(req reel.LoadMedia) tea.Cmd
	// SetLiked persists a like and answers with LikeToggled.
	SetLiked func(id string, liked bool) tea.Cmd

	Events *otel.Logger
	Ring   *otel.RingBuffer
}

// App is the root Bubble Tea model. It hosts a reel.Controller: every
// input becomes a controller event and every effect becomes a command.
// IMPORTANT: App does NOT hold *store.Store. It receives items via messages.
type App struct {
	cfg    AppConfig
	events *otel.Logger
	status statusReader

	ctrl    *reel.Controller
	pending []store.Item // pages that arrived before the first resize
	meta    map[string]store.Item

	surface  surface
	ticking  bool // a frameMsg is scheduled
	wheelSeq int

	spinner   spinner.Model
	paging    bool // a LoadPage is in flight
	stalled   bool // the last page was empty or failed
	lastFetch *FetchComplete

	err    error
	width  int
	height int
	ready  bool
	debug  bool
}

// NewApp creates an App from cfg.
func NewApp(cfg AppConfig) App {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	events := cfg.Events
	if events == nil {
		events = otel.NewNullLogger()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot

	a := App{
		cfg:     cfg,
		events:  events,
		meta:    make(map[string]store.Item),
		surface: newSurface(),
		spinner: s,
		paging:  cfg.LoadPage != nil, // Init requests the first page
	}
	a.status, _ = cfg.Engine.(statusReader)
	return a
}

// Init loads the first page and starts the spinner.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, statusTick()}
	if a.cfg.LoadPage != nil {
		cmds = append(cmds, a.cfg.LoadPage(-1, a.cfg.PageSize))
	}
	return tea.Batch(cmds...)
}

func statusTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		if a.ctrl == nil {
			return a, a.start()
		}
		return a, a.apply(a.ctrl.Handle(reel.Resize{Extent: a.extent()}))

	case PageLoaded:
		return a.handlePage(msg)

	case MediaReady:
		if a.ctrl == nil {
			if r, ok := a.cfg.Engine.(reel.Releaser); ok && msg.Handle != nil {
				r.Release(msg.Handle)
			}
			return a, nil
		}
		if msg.Err != nil {
			return a, a.apply(a.ctrl.Handle(reel.MediaLoadFailed{ItemID: msg.ItemID, Gen: msg.Gen, Err: msg.Err}))
		}
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadDone, Comp: "ui", Item: msg.ItemID})
		return a, a.apply(a.ctrl.Handle(reel.MediaLoaded{ItemID: msg.ItemID, Gen: msg.Gen, Handle: msg.Handle}))

	case LikeToggled:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		if it, ok := a.meta[msg.ID]; ok && it.Liked != msg.Liked {
			it.Liked = msg.Liked
			if msg.Liked {
				it.Likes++
			} else if it.Likes > 0 {
				it.Likes--
			}
			a.meta[msg.ID] = it
		}
		return a, nil

	case FetchComplete:
		a.lastFetch = &msg
		if msg.Err != nil {
			a.err = fmt.Errorf("fetch %s: %w", msg.Source, msg.Err)
			return a, nil
		}
		if msg.NewItems > 0 && (a.stalled || a.loaded() == 0) {
			return a, a.loadMore(a.loaded() - 1)
		}
		return a, nil

	case frameMsg:
		a.ticking = false
		return a, a.stepFrame()

	case settleMsg:
		if msg.Seq != a.wheelSeq || a.surface.moving || a.ctrl == nil {
			return a, nil
		}
		return a, a.apply(a.ctrl.Handle(reel.MomentumEnd{Offset: a.surface.pos}))

	case statusTickMsg:
		return a, statusTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	// Clear any existing error on key press
	a.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Debug):
		a.debug = !a.debug
		return a, nil

	case key.Matches(msg, keys.Refresh):
		if a.stalled || a.loaded() == 0 {
			return a, a.loadMore(a.loaded() - 1)
		}
		return a, nil
	}

	if a.ctrl == nil || a.ctrl.Len() == 0 {
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Next):
		return a, a.fling(1)

	case key.Matches(msg, keys.Prev):
		return a, a.fling(-1)

	case key.Matches(msg, keys.First), key.Matches(msg, keys.Last):
		i := 0
		if key.Matches(msg, keys.Last) {
			i = a.ctrl.Len() - 1
		}
		it, _ := a.ctrl.Item(i)
		effects, err := a.ctrl.SetActiveItem(it.ID)
		if err != nil {
			a.err = err
			return a, nil
		}
		return a, a.apply(effects)

	case key.Matches(msg, keys.Mute):
		return a, a.apply(a.ctrl.Handle(reel.MuteTap{ItemID: a.ctrl.Active()}))

	case key.Matches(msg, keys.Like):
		it, ok := a.meta[a.ctrl.Active()]
		if !ok || a.cfg.SetLiked == nil {
			return a, nil
		}
		return a, a.cfg.SetLiked(it.ID, !it.Liked)
	}

	return a, nil
}

// handleMouseMsg turns wheel notches into drags and clicks into taps.
func (a App) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.ctrl == nil || a.ctrl.Len() == 0 || a.debug {
		return a, nil
	}

	var delta float64
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		delta = wheelStep
	case msg.Button == tea.MouseButtonWheelUp:
		delta = -wheelStep
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if msg.Y >= int(a.extent()) {
			return a, nil
		}
		page := int((math.Round(clamp(a.surface.pos, 0, a.maxOffset())) + float64(msg.Y)) / a.extent())
		it, ok := a.ctrl.Item(page)
		if !ok {
			return a, nil
		}
		return a, a.apply(a.ctrl.Handle(reel.MuteTap{ItemID: it.ID}))
	default:
		return a, nil
	}

	a.surface.drag(delta, 0, a.maxOffset())
	cmd := a.apply(a.ctrl.Handle(reel.ScrollMoved{Offset: a.surface.pos}))
	a.wheelSeq++
	seq := a.wheelSeq
	settle := tea.Tick(wheelSettle, func(time.Time) tea.Msg { return settleMsg{Seq: seq} })
	return a, tea.Batch(cmd, settle)
}

// fling throws the feed pages pages from where it would come to rest.
func (a *App) fling(pages float64) tea.Cmd {
	reach := flingDistance(a.extent(), a.ctrl.SnapEpsilon())
	a.surface.fling(pages*reach, 0, a.maxOffset())
	return a.animate()
}

// animate schedules the next frame unless one is already pending.
func (a *App) animate() tea.Cmd {
	if a.ticking || !a.surface.moving {
		return nil
	}
	a.ticking = true
	return frame()
}

// stepFrame advances the spring and reports the new offset. The frame the
// surface comes to rest also ends the momentum.
func (a *App) stepFrame() tea.Cmd {
	if a.ctrl == nil || !a.surface.moving {
		return nil
	}
	settled := a.surface.step(0, a.maxOffset())
	effects := a.ctrl.Handle(reel.ScrollMoved{Offset: a.surface.pos})
	if settled {
		effects = append(effects, a.ctrl.Handle(reel.MomentumEnd{Offset: a.surface.pos})...)
	}
	return tea.Batch(a.apply(effects), a.animate())
}

// start creates the controller once the first page and the terminal size
// are both known.
func (a *App) start() tea.Cmd {
	if a.ctrl != nil || !a.ready {
		return nil
	}
	opts := a.cfg.Options
	if opts == (reel.Options{}) {
		opts = reel.DefaultOptions(0)
	}
	opts.Extent = a.extent()

	ctrl, err := reel.New(a.cfg.Engine, toReelItems(a.pending), opts)
	if err != nil {
		a.err = err
		logging.Error("start feed", "err", err)
		return nil
	}
	a.ctrl = ctrl
	a.pending = nil
	return a.apply(ctrl.Start())
}

func (a App) handlePage(msg PageLoaded) (tea.Model, tea.Cmd) {
	a.paging = false
	if msg.Err != nil {
		a.err = msg.Err
		a.stalled = true
		a.events.Error(otel.KindStoreError, "ui", msg.Err)
		return a, nil
	}
	if msg.After != a.loaded()-1 {
		logging.Debug("stale page dropped", "after", msg.After, "have", a.loaded())
		return a, nil
	}
	if len(msg.Items) == 0 {
		a.stalled = true
		return a, nil
	}
	a.stalled = false
	for _, it := range msg.Items {
		a.meta[it.ID] = it
	}
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPageAdded, Comp: "ui", Count: len(msg.Items)})

	if a.ctrl == nil {
		a.pending = append(a.pending, msg.Items...)
		return a, a.start()
	}
	return a, a.apply(a.ctrl.Handle(reel.PageAppended{Items: toReelItems(msg.Items)}))
}

// loadMore requests the page after position after.
func (a *App) loadMore(after int) tea.Cmd {
	if a.paging || a.cfg.LoadPage == nil {
		return nil
	}
	a.paging = true
	a.stalled = false
	return a.cfg.LoadPage(after, a.cfg.PageSize)
}

// apply turns controller effects into events and commands. Effects can
// feed further events back to the controller.
func (a *App) apply(effects []reel.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		switch eff := eff.(type) {
		case reel.ActiveItemChanged:
			a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindActive, Comp: "ui",
				Item: eff.ID, Prev: eff.Previous, Page: eff.Page})
			logging.Debug("active changed", "item", eff.ID, "prev", eff.Previous, "page", eff.Page)

		case reel.MuteStateChanged:
			a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindMute, Comp: "ui",
				Item: eff.ID, Extra: map[string]any{"muted": eff.Muted}})

		case reel.LoadMedia:
			a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindLoadStart, Comp: "ui", Item: eff.ItemID})
			if a.cfg.LoadMedia != nil {
				cmds = append(cmds, a.cfg.LoadMedia(eff))
			}

		case *reel.MediaLoadError:
			a.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindLoadError, Comp: "ui",
				Item: eff.ItemID, Err: eff.Err.Error()})

		case reel.NeedMore:
			a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindNeedMore, Comp: "ui", Count: eff.AfterOrder + 1})
			cmds = append(cmds, a.loadMore(eff.AfterOrder))

		case reel.PageRejected:
			a.err = eff.Err
			a.events.Error(otel.KindPageReject, "ui", eff.Err)

		case reel.ScrollCommand:
			a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSnap, Comp: "ui", Offset: eff.Offset,
				Extra: map[string]any{"animated": eff.Animated}})
			a.surface.scrollTo(eff.Offset, eff.Animated)
			if eff.Animated {
				cmds = append(cmds, a.animate())
			} else {
				effects = append(effects, a.ctrl.Handle(reel.ScrollMoved{Offset: eff.Offset})...)
			}

		case reel.SnapCorrectionSkipped:
			a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSnapSkipped, Comp: "ui",
				Offset: eff.Offset, Page: eff.Page, Msg: eff.Reason.String()})
		}
	}
	return tea.Batch(cmds...)
}

// loaded is the number of items received so far.
func (a App) loaded() int {
	if a.ctrl != nil {
		return a.ctrl.Len()
	}
	return len(a.pending)
}

// extent is the page height in rows.
func (a App) extent() float64 {
	return float64(max(a.height-statusBarHeight, 1))
}

func (a App) maxOffset() float64 {
	if a.ctrl == nil || a.ctrl.Len() == 0 {
		return 0
	}
	return float64(a.ctrl.Len()-1) * a.extent()
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debug {
		overlay := debugOverlay(a.cfg.Ring, a.feedStats(), a.width, a.height-statusBarHeight)
		return overlay + "\n" + debugStatusBar(a.width)
	}

	var feed string
	if a.ctrl == nil || a.ctrl.Len() == 0 {
		msg := "No reels yet. Press 'r' to reload."
		if a.paging {
			msg = a.spinner.View() + " Loading reels..."
		}
		feed = strings.Join(fitLines(HelpStyle.Render(msg), a.width, int(a.extent())), "\n")
	} else {
		feed = strings.Join(a.renderFeed(), "\n")
	}

	return feed + "\n" + a.renderStatusBar()
}

// renderFeed draws the rows of the pages under the viewport.
func (a App) renderFeed() []string {
	ext := int(a.extent())
	top := int(math.Round(clamp(a.surface.pos, 0, a.maxOffset())))
	first := top / ext

	var rows []string
	for page := first; len(rows) < ext+top-first*ext && page < a.ctrl.Len(); page++ {
		rows = append(rows, renderPage(a.pageView(page), a.width, ext)...)
	}
	skip := top - first*ext
	if skip > len(rows) {
		skip = len(rows)
	}
	rows = rows[skip:]
	if len(rows) > ext {
		rows = rows[:ext]
	}
	for len(rows) < ext {
		rows = append(rows, strings.Repeat(" ", a.width))
	}
	return rows
}

func (a App) pageView(page int) pageView {
	it, _ := a.ctrl.Item(page)
	p := pageView{
		Item:    a.meta[it.ID],
		Index:   page,
		Total:   a.ctrl.Len(),
		Active:  it.ID == a.ctrl.Active(),
		Spinner: a.spinner.View(),
	}
	if p.Item.ID == "" {
		p.Item = store.Item{ID: it.ID, MediaRef: it.MediaRef, Caption: it.Caption, Author: it.Author}
	}
	s, ok := a.ctrl.Session(it.ID)
	if !ok {
		return p
	}
	p.Session = true
	p.State = s.State()
	p.Muted = s.Muted()
	p.Loaded = s.Loaded()
	if err := s.Err(); err != nil {
		p.Err = err.Err
	}
	if a.status != nil && s.Handle() != nil {
		st := a.status.Status(s.Handle())
		p.Status = &st
	}
	return p
}

// renderStatusBar renders the bottom bar: position, fetch state and key hints.
func (a App) renderStatusBar() string {
	if a.err != nil {
		return ErrorStyle.Width(a.width).Render("Error: " + a.err.Error())
	}

	var left string
	if a.ctrl != nil && a.ctrl.Len() > 0 {
		left = fmt.Sprintf("%d/%d", a.ctrl.ActivePage()+1, a.ctrl.Len())
	}
	if a.paging {
		left += " " + a.spinner.View()
	}
	if a.lastFetch != nil && a.lastFetch.NewItems > 0 {
		left += StatusBarText.Render(fmt.Sprintf("  +%d from %s", a.lastFetch.NewItems, a.lastFetch.Source))
	}

	hints := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":scroll"),
		StatusBarKey.Render("m") + StatusBarText.Render(":mute"),
		StatusBarKey.Render("l") + StatusBarText.Render(":like"),
		StatusBarKey.Render("g/G") + StatusBarText.Render(":ends"),
		StatusBarKey.Render("D") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	return StatusBar.Width(a.width).Render(padBetween(left, strings.Join(hints, " "), a.width-2))
}

func (a App) feedStats() feedStats {
	if a.ctrl == nil {
		return feedStats{}
	}
	return feedStats{
		Active:   a.ctrl.Active(),
		Page:     a.ctrl.ActivePage(),
		Items:    a.ctrl.Len(),
		Sessions: a.ctrl.SessionIDs(),
		Playing:  a.ctrl.Playing(),
		Offset:   a.surface.pos,
	}
}

// Controller returns the hosted controller, nil before the first resize
// (for testing).
func (a App) Controller() *reel.Controller {
	return a.ctrl
}

// Offset returns the scroll offset in rows (for testing).
func (a App) Offset() float64 {
	return a.surface.pos
}

// Err returns the error shown in the status bar (for testing).
func (a App) Err() error {
	return a.err
}

func toReelItems(items []store.Item) []reel.Item {
	out := make([]reel.Item, len(items))
	for i, it := range items {
		out[i] = reel.Item{
			ID:       it.ID,
			MediaRef: it.MediaRef,
			Order:    it.Position,
			Caption:  it.Caption,
			Author:   it.Author,
		}
	}
	return out
}
