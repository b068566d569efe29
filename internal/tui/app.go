// Package tui wires the views into the root Bubble Tea model. The model
// runs in one of two modes: local, fed by the monitor through a store
// subscription, or attach, fed by a websocket client following a remote
// serve instance.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-htop/octop/internal/client"
	"github.com/opencode-htop/octop/internal/config"
	"github.com/opencode-htop/octop/internal/monitor"
	"github.com/opencode-htop/octop/internal/session"
	"github.com/opencode-htop/octop/internal/tui/theme"
	"github.com/opencode-htop/octop/internal/tui/views/detail"
	"github.com/opencode-htop/octop/internal/tui/views/eventlog"
	"github.com/opencode-htop/octop/internal/tui/views/mcp"
	"github.com/opencode-htop/octop/internal/tui/views/statusbar"
	"github.com/opencode-htop/octop/internal/tui/views/table"
	"github.com/opencode-htop/octop/internal/tui/views/todos"
)

// Overlay identifies which full-screen or centered view is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayEventLog
	OverlayHelp
)

// Messages internal to the app model. Client messages arrive as their own
// types from the client package.
type (
	snapshotMsg   struct{ snap *session.Snapshot }
	clockMsg      time.Time
	gaugeFrameMsg time.Time
	detailTickMsg time.Time
	flashClearMsg struct{}

	detailContentMsg struct {
		lines  []string
		source string
		err    error
	}
	refreshFailedMsg struct{ err error }
	focusResultMsg   struct {
		target string
		err    error
	}
	yankResultMsg struct {
		id  string
		err error
	}
)

// Options carries the mode-specific collaborators. Local mode sets Store,
// Monitor, and Reader; attach mode sets WS and HTTP; mock mode sets only
// Store.
type Options struct {
	Config  *config.Config
	Store   *session.Store
	Monitor *monitor.Monitor
	Reader  *monitor.StoreReader
	WS      *client.WSClient
	HTTP    *client.HTTPClient
	Source  string
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg    *config.Config
	store  *session.Store
	mon    *monitor.Monitor
	reader *monitor.StoreReader
	wsc    *client.WSClient
	httpc  *client.HTTPClient
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	// Data state.
	snap       *session.Snapshot
	sub        chan *session.Snapshot
	policy     session.Policy
	prevHealth map[string]bool

	// Navigation.
	overlay   Overlay
	showTodos bool
	showMCP   bool

	// Sub-views.
	table       table.Model
	detail      detail.Model
	eventLog    eventlog.Model
	statusBar   statusbar.Model
	filterInput textinput.Model

	// Detail bookkeeping.
	detailHistory bool // tab toggled away from the live pane
	gaugeActive   bool
	detailTicking bool

	// Connection state.
	attach    bool
	connected bool
}

// New creates the root model. The caller still owns the collaborators;
// the model only cancels its command context on quit.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Prompt = "/"
	ti.CharLimit = 64

	sortKey, ok := session.ParseSortKey(opts.Config.View.SortKey)
	if !ok {
		sortKey = session.ByStatus
	}

	m := Model{
		cfg:        opts.Config,
		store:      opts.Store,
		mon:        opts.Monitor,
		reader:     opts.Reader,
		wsc:        opts.WS,
		httpc:      opts.HTTP,
		ctx:        ctx,
		cancel:     cancel,
		keys:       DefaultKeyMap(),
		prevHealth: make(map[string]bool),
		policy: session.Policy{
			ShowAll:            opts.Config.View.ShowAll,
			ShowNonInteractive: opts.Config.View.ShowNonInteractive,
			Key:                sortKey,
			Descending:         opts.Config.View.SortDescending,
		},
		table:       table.New(),
		detail:      detail.New(),
		eventLog:    eventlog.New(),
		statusBar:   statusbar.New(),
		filterInput: ti,
		attach:      opts.WS != nil,
	}
	m.statusBar.Source = opts.Source
	m.statusBar.Attach = m.attach
	if m.store != nil {
		m.sub = m.store.Subscribe()
	}
	return m
}

// Init starts the data feed and the clock.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickClock()}
	if m.attach {
		cmds = append(cmds, m.wsc.Listen(m.ctx))
	} else {
		cmds = append(cmds, m.waitForSnapshot())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.detail.SetSize(msg.Width, msg.Height)
		m.filterInput.Width = msg.Width - 4
		m.relayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		cmd := m.applySnapshot(msg.snap)
		m.updateAttachDetail()
		return m, tea.Batch(m.waitForSnapshot(), cmd)

	case clockMsg:
		m.table.Now = time.Time(msg)
		return m, tickClock()

	case client.ConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.eventLog.Add("ws", "connected")
		return m, m.wsc.ReadLoop(m.ctx)

	case client.DisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		if msg.Err != nil {
			m.eventLog.Addf("err", "disconnected: %v", msg.Err)
		} else {
			m.eventLog.Add("ws", "connection closed")
		}
		return m, m.wsc.Listen(m.ctx)

	case client.HelloMsg:
		m.statusBar.Source = msg.Payload.Source
		m.eventLog.Addf("ws", "hello: server %s, source %s",
			msg.Payload.ServerVersion, msg.Payload.Source)
		return m, m.wsc.ReadLoop(m.ctx)

	case client.SnapshotMsg:
		cmd := m.applySnapshot(msg.Snapshot)
		m.updateAttachDetail()
		return m, tea.Batch(m.wsc.ReadLoop(m.ctx), cmd)

	case client.ErrorMsg:
		m.eventLog.Add("err", msg.Message)
		m.statusBar.Flash("server: " + msg.Message)
		return m, tea.Batch(m.wsc.ReadLoop(m.ctx), clearFlash())

	case refreshFailedMsg:
		m.eventLog.Addf("err", "refresh: %v", msg.err)
		m.statusBar.Flash("refresh failed")
		return m, clearFlash()

	case detailContentMsg:
		if msg.err != nil {
			m.eventLog.Addf("err", "detail: %v", msg.err)
		}
		if m.overlay == OverlayDetail {
			m.detail.SetContent(msg.lines, msg.source)
		}
		return m, nil

	case gaugeFrameMsg:
		if m.overlay != OverlayDetail {
			m.gaugeActive = false
			return m, nil
		}
		if m.detail.AnimateGauge() {
			return m, gaugeFrame()
		}
		m.gaugeActive = false
		return m, nil

	case detailTickMsg:
		if m.overlay != OverlayDetail {
			m.detailTicking = false
			return m, nil
		}
		return m, tea.Batch(m.refreshDetail(), detailTick())

	case spinner.TickMsg:
		if m.overlay != OverlayDetail {
			return m, nil
		}
		return m, m.detail.UpdateSpinner(msg)

	case flashClearMsg:
		return m, nil

	case focusResultMsg:
		if msg.err != nil {
			m.eventLog.Addf("err", "focus %s: %v", msg.target, msg.err)
			m.statusBar.Flash("focus failed: " + msg.err.Error())
			if m.overlay == OverlayDetail {
				m.detail.FocusError = msg.err.Error()
			}
		} else {
			m.statusBar.Flash("focused " + msg.target)
			m.detail.FocusError = ""
		}
		return m, clearFlash()

	case yankResultMsg:
		if msg.err != nil {
			m.statusBar.Flash("yank failed: " + msg.err.Error())
		} else {
			m.statusBar.Flash("copied " + msg.id)
		}
		return m, clearFlash()
	}

	return m, nil
}

// applySnapshot swaps in a fresh snapshot and rebuilds the visible rows.
// The returned cmd restarts the gauge animation when the detail view is
// open and its session moved.
func (m *Model) applySnapshot(snap *session.Snapshot) tea.Cmd {
	if snap == nil {
		return nil
	}
	prevRows := 0
	if m.snap != nil {
		prevRows = len(m.snap.Rows)
	}
	m.snap = snap
	m.logHealthTransitions(snap.Health)
	if len(snap.Rows) != prevRows {
		m.eventLog.Addf("poll", "%d rows (%d sessions today)", len(snap.Rows), snap.Today.Sessions)
	}

	m.statusBar.Health = snap.Health
	m.table.Today = snap.Today
	m.table.Global = snap.Global
	m.table.Now = time.Now()
	m.rebuild()

	if m.overlay == OverlayDetail {
		if row, ok := findRow(snap, m.detail.Row); ok {
			m.detail.UpdateRow(row)
			return m.armGauge()
		}
	}
	return nil
}

// updateAttachDetail refreshes the open detail body from the snapshot row.
// Only attach mode draws its body from the snapshot itself.
func (m *Model) updateAttachDetail() {
	if !m.attach || m.overlay != OverlayDetail {
		return
	}
	if row, ok := findRow(m.snap, m.detail.Row); ok {
		m.detail.SetContent(detail.RowLines(row), detail.SourceRow)
	}
}

// rebuild reapplies the view policy to the current snapshot.
func (m *Model) rebuild() {
	var rows []session.Row
	if m.snap != nil {
		rows = session.Apply(m.snap, m.policy)
	}
	m.table.SetRows(rows)
	m.table.SortKey = m.policy.Key
	m.table.Descending = m.policy.Descending
	m.table.Filter = m.policy.Filter

	active, tools := 0, 0
	if m.snap != nil {
		for _, r := range m.snap.Rows {
			if r.Process.IsToolProcess {
				tools++
				continue
			}
			switch r.Status {
			case session.Generating, session.ToolUse, session.Busy, session.Thinking:
				active++
			}
		}
	}
	m.table.ActiveCount = active
	m.table.ToolCount = tools
	m.relayout()
}

func (m *Model) logHealthTransitions(health []session.SourceStatus) {
	for _, h := range health {
		prev, seen := m.prevHealth[h.Source]
		if seen && prev == h.OK {
			continue
		}
		m.prevHealth[h.Source] = h.OK
		if h.OK {
			if seen {
				m.eventLog.Addf("hlth", "%s recovered", h.Source)
			}
		} else {
			m.eventLog.Addf("hlth", "%s failing: %s", h.Source, h.Detail)
		}
	}
}

// relayout recomputes the table viewport height from the fixed chrome:
// one status bar line plus whichever panels are toggled on.
func (m *Model) relayout() {
	h := m.height - 1
	if m.showTodos {
		h -= lipgloss.Height(m.todosPanel())
	}
	if m.showMCP {
		h -= lipgloss.Height(m.mcpPanel())
	}
	m.table.Width = m.width
	m.table.Height = h
}

func (m Model) todosPanel() string {
	var fact *session.SessionFact
	if row, ok := m.table.Selected(); ok {
		fact = row.Session
	}
	return todos.View(fact, m.width)
}

func (m Model) mcpPanel() string {
	var servers []session.MCPServer
	if m.snap != nil {
		servers = m.snap.MCP
	}
	return mcp.View(servers, m.width)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.statusBar.FilterActive {
		return m.handleFilterKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayDetail:
		return m.handleDetailKey(msg)
	case OverlayEventLog:
		return m.handleEventLogKey(msg)
	case OverlayHelp:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	return m.handleTableKey(msg)
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.statusBar.FilterActive = false
		m.filterInput.Blur()
		if m.policy.Filter != "" {
			m.eventLog.Add("nav", "filter: "+m.policy.Filter)
		}
		return m, nil
	case tea.KeyEsc:
		m.statusBar.FilterActive = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.policy.Filter = ""
		m.rebuild()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.policy.Filter = m.filterInput.Value()
	m.rebuild()
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshDetail()

	case key.Matches(msg, m.keys.Down):
		m.detail.ScrollDown(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.detail.ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.detail.ScrollTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.detail.ScrollBottom()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		return m, m.focusRow(m.detail.Row)

	case key.Matches(msg, m.keys.Yank):
		return m, yankRow(m.detail.Row)
	}

	switch msg.String() {
	case "tab":
		if !m.attach {
			m.detailHistory = !m.detailHistory
			return m, m.refreshDetail()
		}
	case "d":
		m.detail.HalfPageDown()
	case "u":
		m.detail.HalfPageUp()
	}
	return m, nil
}

func (m Model) handleEventLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.EventLog):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Up):
		m.eventLog.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.eventLog.ScrollDown(1)
	}
	return m, nil
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.table.Move(1)
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.table.Move(-1)
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.table.Home()
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.table.End()
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.table.SelectMode = false
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.openDetail()

	case key.Matches(msg, m.keys.SortNext):
		m.policy.Key = m.policy.Key.Next()
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.SortPrev):
		m.policy.Key = m.policy.Key.Prev()
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.SortFlip):
		m.policy.Descending = !m.policy.Descending
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.statusBar.FilterActive = true
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.ShowAll):
		m.policy.ShowAll = !m.policy.ShowAll
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.NonInteractive):
		m.policy.ShowNonInteractive = !m.policy.ShowNonInteractive
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.Todos):
		m.showTodos = !m.showTodos
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.MCP):
		m.showMCP = !m.showMCP
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.EventLog):
		m.overlay = OverlayEventLog
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Yank):
		if row, ok := m.table.Selected(); ok {
			return m, yankRow(row)
		}
		m.statusBar.Flash("nothing selected")
		return m, clearFlash()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.collectNow()

	case key.Matches(msg, m.keys.Focus):
		if row, ok := m.table.Selected(); ok {
			return m, m.focusRow(row)
		}
		m.statusBar.Flash("nothing selected")
		return m, clearFlash()
	}

	return m, nil
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	row, ok := m.table.Selected()
	if !ok {
		m.statusBar.Flash("nothing selected")
		return m, clearFlash()
	}

	model := ""
	if row.Session != nil {
		model = row.Session.Model
	}
	m.overlay = OverlayDetail
	m.detailHistory = false
	m.detail.Open(row, m.cfg.MaxContextTokens(model))
	m.detail.SetSize(m.width, m.height)

	cmds := []tea.Cmd{m.refreshDetail(), m.detail.SpinnerTick(), m.armGauge()}
	if !m.detailTicking {
		m.detailTicking = true
		cmds = append(cmds, detailTick())
	}
	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "starting octop..."
	}

	if m.overlay == OverlayDetail {
		return m.detail.View()
	}

	m.statusBar.SelectMode = m.table.SelectMode
	m.statusBar.FilterView = m.filterInput.View()
	m.statusBar.Connected = m.connected

	sections := []string{m.table.View()}
	if m.showTodos {
		sections = append(sections, m.todosPanel())
	}
	if m.showMCP {
		sections = append(sections, m.mcpPanel())
	}
	sections = append(sections, m.statusBar.View())
	base := lipgloss.JoinVertical(lipgloss.Left, sections...)

	switch m.overlay {
	case OverlayEventLog:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.eventLog.View(m.width-8, m.height-4))
	case OverlayHelp:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.helpView())
	}
	return base
}

func (m Model) helpView() string {
	binds := []key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Home, m.keys.End,
		m.keys.Enter, m.keys.Escape,
		m.keys.SortNext, m.keys.SortPrev, m.keys.SortFlip,
		m.keys.Filter, m.keys.ShowAll, m.keys.NonInteractive,
		m.keys.Todos, m.keys.MCP, m.keys.EventLog,
		m.keys.Yank, m.keys.Refresh, m.keys.Focus,
		m.keys.Help, m.keys.Quit,
	}

	lines := []string{theme.StyleHeader.Render(" KEYS "), ""}
	for _, b := range binds {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %s  %s",
			theme.StyleKey.Width(8).Render(h.Key),
			theme.StyleDimmed.Render(h.Desc)))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// -- commands --

func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.sub
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func gaugeFrame() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return gaugeFrameMsg(t) })
}

func detailTick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return detailTickMsg(t) })
}

func clearFlash() tea.Cmd {
	return tea.Tick(1600*time.Millisecond, func(time.Time) tea.Msg { return flashClearMsg{} })
}

func (m *Model) armGauge() tea.Cmd {
	if m.gaugeActive {
		return nil
	}
	m.gaugeActive = true
	return gaugeFrame()
}

// refreshDetail loads the detail body for the open row: the live tmux
// pane when one exists, otherwise message history from the database. In
// attach mode only the snapshot row itself is available.
func (m Model) refreshDetail() tea.Cmd {
	row := m.detail.Row
	if m.attach {
		lines := detail.RowLines(row)
		return func() tea.Msg {
			return detailContentMsg{lines: lines, source: detail.SourceRow}
		}
	}

	ctx := m.ctx
	wantHistory := m.detailHistory
	reader := m.reader
	limit := m.cfg.Detail.HistoryLimit
	width := m.width
	return func() tea.Msg {
		if !wantHistory && row.Process.TTY != "" {
			if lines := monitor.CapturePane(ctx, row.Process.TTY); len(lines) > 0 {
				return detailContentMsg{lines: lines, source: detail.SourceTmux}
			}
		}
		if row.Session == nil {
			return detailContentMsg{
				lines:  []string{"(no session bound; nothing to replay)"},
				source: detail.SourceHistory,
			}
		}
		if reader == nil || !reader.Present() {
			return detailContentMsg{
				lines:  []string{"(database not found; history unavailable)"},
				source: detail.SourceHistory,
			}
		}
		msgs, err := reader.RecentMessages(ctx, row.Session.ID, limit)
		if err != nil {
			return detailContentMsg{
				lines:  []string{"history unavailable: " + err.Error()},
				source: detail.SourceHistory,
				err:    err,
			}
		}
		return detailContentMsg{lines: detail.HistoryLines(msgs, width), source: detail.SourceHistory}
	}
}

// collectNow forces a refresh outside the poll cadence. Attach mode goes
// through the HTTP endpoint and reports through internal messages so the
// websocket read loop is not re-armed twice.
func (m Model) collectNow() tea.Cmd {
	if m.attach {
		httpc := m.httpc
		return func() tea.Msg {
			snap, err := httpc.FetchSnapshot()
			if err != nil {
				return refreshFailedMsg{err: err}
			}
			if snap == nil {
				return nil
			}
			return snapshotMsg{snap: snap}
		}
	}
	if m.mon == nil || m.store == nil {
		return nil
	}
	mon, store, ctx := m.mon, m.store, m.ctx
	return func() tea.Msg {
		store.Publish(mon.Collect(ctx))
		return nil
	}
}

func (m Model) focusRow(row session.Row) tea.Cmd {
	if m.attach {
		if row.Session == nil {
			return func() tea.Msg {
				return focusResultMsg{target: "session", err: errors.New("no session bound")}
			}
		}
		httpc, id := m.httpc, row.Session.ID
		return func() tea.Msg {
			return focusResultMsg{target: id, err: httpc.FocusSession(id)}
		}
	}

	tty := row.Process.TTY
	if tty == "" {
		return func() tea.Msg {
			return focusResultMsg{target: "pane", err: errors.New("process has no tty")}
		}
	}
	ctx := m.ctx
	return func() tea.Msg {
		return focusResultMsg{target: tty, err: monitor.FocusPane(ctx, tty)}
	}
}

func yankRow(row session.Row) tea.Cmd {
	if row.Session == nil {
		return func() tea.Msg {
			return yankResultMsg{err: errors.New("no session bound")}
		}
	}
	id := row.Session.ID
	return func() tea.Msg {
		return yankResultMsg{id: id, err: clipboard.WriteAll(id)}
	}
}

// findRow locates the open detail row in a fresh snapshot, matching by
// session id first and falling back to pid for unbound rows.
func findRow(snap *session.Snapshot, prev session.Row) (session.Row, bool) {
	if snap == nil {
		return session.Row{}, false
	}
	if prev.Session != nil {
		for _, r := range snap.Rows {
			if r.Session != nil && r.Session.ID == prev.Session.ID {
				return r, true
			}
		}
	}
	for _, r := range snap.Rows {
		if r.Process.PID == prev.Process.PID {
			return r, true
		}
	}
	return session.Row{}, false
}
