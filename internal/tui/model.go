package tui

import (
	"strings"
	"time"

	"diem/internal/history"
	"diem/pkg/install"
	"diem/pkg/registry"
)

// View represents different views in the TUI
type View int

const (
	ViewInstalled View = iota
	ViewAvailable
	ViewHistory
	ViewDetails
	ViewHelp
)

// Tab represents a navigable tab
type Tab struct {
	Name string
	View View
}

// DefaultTabs returns the default tab configuration
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "Installed", View: ViewInstalled},
		{Name: "Available", View: ViewAvailable},
		{Name: "History", View: ViewHistory},
	}
}

// InstalledRow is one line of the installed view, flattened from the
// local installation metadata.
type InstalledRow struct {
	Name    string
	Version string
	From    string
	Date    time.Time
}

// Model holds the application state
type Model struct {
	// Core state
	ready    bool
	quitting bool

	// Dimensions
	width  int
	height int

	// Navigation
	tabs       []Tab
	activeTab  int
	activeView View
	prevView   View

	// Data sources
	registry     *registry.Registry
	metadata     *install.Metadata
	historyStore *history.Store

	// Loaded data
	installed      []InstalledRow
	available      []*registry.Package
	historyEntries []history.Entry
	selectedPkg    *registry.Package
	selectedRec    *install.Record

	// UI state
	loading      bool
	loadingMsg   string
	errorMsg     string
	filterText   string
	inputMode    bool
	inputPrompt  string
	inputValue   string
	inputHandler func(string)

	// Cursor positions for each view
	cursors map[View]int

	// Scroll offsets for each view
	scrolls map[View]int

	// Styles and keys
	styles *Styles
	keys   KeyMap
}

// NewModel creates a new TUI model
func NewModel(reg *registry.Registry, meta *install.Metadata, historyStore *history.Store) *Model {
	return &Model{
		tabs:         DefaultTabs(),
		activeTab:    0,
		activeView:   ViewInstalled,
		registry:     reg,
		metadata:     meta,
		historyStore: historyStore,
		cursors:      make(map[View]int),
		scrolls:      make(map[View]int),
		styles:       DefaultStyles(),
		keys:         DefaultKeyMap(),
	}
}

// SetSize sets the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Cursor returns the cursor position for the current view
func (m *Model) Cursor() int {
	return m.cursors[m.activeView]
}

// SetCursor sets the cursor position for the current view
func (m *Model) SetCursor(pos int) {
	m.cursors[m.activeView] = pos
}

// Scroll returns the scroll offset for the current view
func (m *Model) Scroll() int {
	return m.scrolls[m.activeView]
}

// SetScroll sets the scroll offset for the current view
func (m *Model) SetScroll(offset int) {
	m.scrolls[m.activeView] = offset
}

// VisibleHeight returns the height available for list content
func (m *Model) VisibleHeight() int {
	// Account for header (2), tabs (1), footer (2), padding (2)
	return m.height - 7
}

// listLen returns the number of rows in the current view's list.
func (m *Model) listLen() int {
	switch m.activeView {
	case ViewInstalled:
		return len(m.filteredInstalled())
	case ViewAvailable:
		return len(m.filteredAvailable())
	case ViewHistory:
		return len(m.historyEntries)
	default:
		return 0
	}
}

// filteredInstalled filters installed rows by the current filter text.
func (m *Model) filteredInstalled() []InstalledRow {
	if m.filterText == "" {
		return m.installed
	}
	needle := strings.ToLower(m.filterText)

	var filtered []InstalledRow
	for _, row := range m.installed {
		if strings.Contains(strings.ToLower(row.Name), needle) ||
			strings.Contains(strings.ToLower(row.From), needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// filteredAvailable filters available packages by the current filter text.
func (m *Model) filteredAvailable() []*registry.Package {
	if m.filterText == "" {
		return m.available
	}
	needle := strings.ToLower(m.filterText)

	var filtered []*registry.Package
	for _, pkg := range m.available {
		if strings.Contains(strings.ToLower(pkg.Name), needle) ||
			strings.Contains(strings.ToLower(pkg.Provider), needle) ||
			strings.Contains(strings.ToLower(pkg.Description), needle) {
			filtered = append(filtered, pkg)
		}
	}
	return filtered
}

// SelectedAvailable returns the package under the cursor in the
// available view, or nil.
func (m *Model) SelectedAvailable() *registry.Package {
	items := m.filteredAvailable()
	cursor := m.Cursor()
	if cursor >= 0 && cursor < len(items) {
		return items[cursor]
	}
	return nil
}

// SelectedInstalled returns the row under the cursor in the installed
// view, or nil.
func (m *Model) SelectedInstalled() *InstalledRow {
	items := m.filteredInstalled()
	cursor := m.Cursor()
	if cursor >= 0 && cursor < len(items) {
		return &items[cursor]
	}
	return nil
}

// MoveCursor moves the cursor by delta, clamping to valid range
func (m *Model) MoveCursor(delta int) {
	total := m.listLen()
	if total == 0 {
		return
	}

	newPos := m.Cursor() + delta
	if newPos < 0 {
		newPos = 0
	}
	if newPos >= total {
		newPos = total - 1
	}
	m.SetCursor(newPos)

	// Adjust scroll to keep cursor visible
	visibleHeight := m.VisibleHeight()
	scroll := m.Scroll()

	if newPos < scroll {
		m.SetScroll(newPos)
	} else if newPos >= scroll+visibleHeight {
		m.SetScroll(newPos - visibleHeight + 1)
	}
}

// GoToTop moves cursor to the top
func (m *Model) GoToTop() {
	m.SetCursor(0)
	m.SetScroll(0)
}

// GoToBottom moves cursor to the bottom
func (m *Model) GoToBottom() {
	total := m.listLen()
	if total == 0 {
		return
	}
	m.SetCursor(total - 1)

	visibleHeight := m.VisibleHeight()
	if total > visibleHeight {
		m.SetScroll(total - visibleHeight)
	}
}

// NextTab switches to the next tab
func (m *Model) NextTab() {
	m.activeTab = (m.activeTab + 1) % len(m.tabs)
	m.activeView = m.tabs[m.activeTab].View
}

// PrevTab switches to the previous tab
func (m *Model) PrevTab() {
	m.activeTab--
	if m.activeTab < 0 {
		m.activeTab = len(m.tabs) - 1
	}
	m.activeView = m.tabs[m.activeTab].View
}

// SetTab switches to a specific tab by index
func (m *Model) SetTab(index int) {
	if index >= 0 && index < len(m.tabs) {
		m.activeTab = index
		m.activeView = m.tabs[m.activeTab].View
	}
}

// ShowDetails switches to the details view for the given package.
func (m *Model) ShowDetails(pkg *registry.Package, rec *install.Record) {
	m.selectedPkg = pkg
	m.selectedRec = rec
	m.prevView = m.activeView
	m.activeView = ViewDetails
}

// GoBack returns to the previous view
func (m *Model) GoBack() {
	if m.activeView == ViewDetails || m.activeView == ViewHelp {
		m.activeView = m.prevView
	}
}

// SetLoading sets the loading state
func (m *Model) SetLoading(loading bool, msg string) {
	m.loading = loading
	m.loadingMsg = msg
}

// SetError sets an error message
func (m *Model) SetError(msg string) {
	m.errorMsg = msg
}

// ClearMessages clears all messages
func (m *Model) ClearMessages() {
	m.errorMsg = ""
}

// StartInput starts input mode
func (m *Model) StartInput(prompt string, handler func(string)) {
	m.inputMode = true
	m.inputPrompt = prompt
	m.inputValue = ""
	m.inputHandler = handler
}

// FinishInput finishes input mode and calls the handler
func (m *Model) FinishInput() {
	if m.inputHandler != nil {
		m.inputHandler(m.inputValue)
	}
	m.inputMode = false
	m.inputPrompt = ""
	m.inputValue = ""
	m.inputHandler = nil
}

// CancelInput cancels input mode
func (m *Model) CancelInput() {
	m.inputMode = false
	m.inputPrompt = ""
	m.inputValue = ""
	m.inputHandler = nil
}
