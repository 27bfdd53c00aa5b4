package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"diem/internal/history"
	"diem/pkg/install"
	"diem/pkg/registry"
)

// Messages for async operations
type (
	installedLoadedMsg struct {
		rows []InstalledRow
	}

	availableLoadedMsg struct {
		packages []*registry.Package
		err      error
	}

	historyLoadedMsg struct {
		entries []history.Entry
		err     error
	}

	detailsLoadedMsg struct {
		pkg *registry.Package
		rec *install.Record
		err error
	}
)

// App wraps the Model with bubbletea components
type App struct {
	*Model
	spinner       spinner.Model
	textInput     textinput.Model
	availableOnce bool
}

// NewApp creates a new TUI application
func NewApp(reg *registry.Registry, meta *install.Metadata, historyStore *history.Store) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 40

	return &App{
		Model:     NewModel(reg, meta, historyStore),
		spinner:   sp,
		textInput: ti,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		a.loadInstalled(),
		a.loadHistory(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		a.ready = true

	case tea.KeyMsg:
		// Handle filter input mode
		if a.inputMode {
			switch msg.String() {
			case "enter":
				a.FinishInput()
				return a, nil
			case "esc":
				a.CancelInput()
				return a, nil
			default:
				var cmd tea.Cmd
				a.textInput, cmd = a.textInput.Update(msg)
				a.inputValue = a.textInput.Value()
				cmds = append(cmds, cmd)
				return a, tea.Batch(cmds...)
			}
		}

		// Global keybindings
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.quitting = true
			return a, tea.Quit

		case key.Matches(msg, a.keys.Help):
			if a.activeView == ViewHelp {
				a.GoBack()
			} else {
				a.prevView = a.activeView
				a.activeView = ViewHelp
			}

		case key.Matches(msg, a.keys.Tab1):
			a.SetTab(0)
		case key.Matches(msg, a.keys.Tab2):
			a.SetTab(1)
			cmds = append(cmds, a.ensureAvailable())
		case key.Matches(msg, a.keys.Tab3):
			a.SetTab(2)

		case key.Matches(msg, a.keys.Left):
			a.PrevTab()
			if a.activeView == ViewAvailable {
				cmds = append(cmds, a.ensureAvailable())
			}
		case key.Matches(msg, a.keys.Right):
			a.NextTab()
			if a.activeView == ViewAvailable {
				cmds = append(cmds, a.ensureAvailable())
			}

		case key.Matches(msg, a.keys.Back):
			a.GoBack()
		case key.Matches(msg, a.keys.Cancel):
			a.GoBack()
			a.ClearMessages()

		// Navigation
		case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.VimUp):
			a.MoveCursor(-1)
		case key.Matches(msg, a.keys.Down), key.Matches(msg, a.keys.VimDown):
			a.MoveCursor(1)
		case key.Matches(msg, a.keys.PageUp):
			a.MoveCursor(-a.VisibleHeight())
		case key.Matches(msg, a.keys.PageDown):
			a.MoveCursor(a.VisibleHeight())
		case key.Matches(msg, a.keys.Home), key.Matches(msg, a.keys.VimTop):
			a.GoToTop()
		case key.Matches(msg, a.keys.End), key.Matches(msg, a.keys.VimBot):
			a.GoToBottom()

		// Actions
		case key.Matches(msg, a.keys.Enter):
			switch a.activeView {
			case ViewAvailable:
				if pkg := a.SelectedAvailable(); pkg != nil {
					var rec *install.Record
					if r, ok := a.metadata.Get(pkg.Name); ok {
						rec = &r
					}
					a.ShowDetails(pkg, rec)
				}
			case ViewInstalled:
				if row := a.SelectedInstalled(); row != nil {
					cmds = append(cmds, a.loadInstalledDetails(*row))
				}
			}

		case key.Matches(msg, a.keys.Filter):
			if a.activeView == ViewInstalled || a.activeView == ViewAvailable {
				a.startFilter()
			}

		case key.Matches(msg, a.keys.Refresh):
			switch a.activeView {
			case ViewInstalled:
				cmds = append(cmds, a.loadInstalled())
			case ViewAvailable:
				a.SetLoading(true, "Scanning providers...")
				cmds = append(cmds, a.loadAvailable())
			case ViewHistory:
				cmds = append(cmds, a.loadHistory())
			}
		}

	case installedLoadedMsg:
		a.installed = msg.rows

	case availableLoadedMsg:
		a.SetLoading(false, "")
		if msg.err != nil {
			a.SetError(msg.err.Error())
		} else {
			a.available = msg.packages
		}

	case historyLoadedMsg:
		if msg.err == nil {
			a.historyEntries = msg.entries
		}

	case detailsLoadedMsg:
		if msg.err != nil {
			a.SetError(msg.err.Error())
		}
		a.ShowDetails(msg.pkg, msg.rec)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	b.WriteString(a.renderTabs())
	b.WriteString("\n")

	b.WriteString(a.renderContent())

	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the header bar
func (a *App) renderHeader() string {
	title := a.styles.Header.Render(" diem package browser ")

	var right string
	if a.loading {
		right = a.spinner.View() + " " + a.loadingMsg
	} else if a.errorMsg != "" {
		right = a.styles.Error.Render(a.errorMsg)
	}

	padding := a.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}

	return title + strings.Repeat(" ", padding) + right
}

// renderTabs renders the tab bar
func (a *App) renderTabs() string {
	var tabs []string
	for i, tab := range a.tabs {
		style := a.styles.TabInactive
		if i == a.activeTab {
			style = a.styles.TabActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d] %s", i+1, tab.Name)))
	}

	tabBar := strings.Join(tabs, " ")
	return lipgloss.NewStyle().
		Width(a.width).
		Background(ColorBgAlt).
		Padding(0, 1).
		Render(tabBar)
}

// renderContent renders the main content area
func (a *App) renderContent() string {
	height := a.height - 5 // Account for header, tabs, footer

	var content string
	switch a.activeView {
	case ViewInstalled:
		content = a.renderInstalledView()
	case ViewAvailable:
		content = a.renderAvailableView()
	case ViewHistory:
		content = a.renderHistoryView()
	case ViewDetails:
		content = a.renderDetailsView()
	case ViewHelp:
		content = a.renderHelpView()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Render(content)
}

// renderInstalledView renders the installed packages list.
func (a *App) renderInstalledView() string {
	var b strings.Builder

	rows := a.filteredInstalled()

	titleStr := fmt.Sprintf("Installed Packages (%d)", len(rows))
	if a.filterText != "" {
		titleStr += fmt.Sprintf(" - Filter: %s", a.filterText)
	}
	b.WriteString(a.styles.Title.Render(titleStr))
	b.WriteString("\n\n")

	if a.inputMode {
		b.WriteString(a.styles.InputPrompt.Render(a.inputPrompt))
		b.WriteString(a.textInput.View())
		b.WriteString("\n\n")
	}

	if len(rows) == 0 {
		b.WriteString(a.styles.Description.Render("No packages installed"))
		return b.String()
	}

	visibleHeight := a.VisibleHeight()
	scroll := a.Scroll()
	cursor := a.Cursor()

	end := scroll + visibleHeight
	if end > len(rows) {
		end = len(rows)
	}

	for i := scroll; i < end; i++ {
		row := rows[i]

		prefix := "  "
		if i == cursor {
			prefix = a.styles.ListItemSelected.String()
		}

		name := a.styles.PackageName.Render(row.Name)
		version := a.styles.PackageVersion.Render(row.Version)
		from := ProviderBadge(row.From)
		date := a.styles.Description.Render(row.Date.Local().Format("2006-01-02"))

		b.WriteString(fmt.Sprintf("%s%-25s %-12s %s %s\n", prefix, name, version, from, date))
	}

	a.writeScrollIndicator(&b, len(rows))

	return b.String()
}

// renderAvailableView renders every provider's published packages.
func (a *App) renderAvailableView() string {
	var b strings.Builder

	pkgs := a.filteredAvailable()

	titleStr := fmt.Sprintf("Available Packages (%d)", len(pkgs))
	if a.filterText != "" {
		titleStr += fmt.Sprintf(" - Filter: %s", a.filterText)
	}
	b.WriteString(a.styles.Title.Render(titleStr))
	b.WriteString("\n\n")

	if a.inputMode {
		b.WriteString(a.styles.InputPrompt.Render(a.inputPrompt))
		b.WriteString(a.textInput.View())
		b.WriteString("\n\n")
	}

	if len(pkgs) == 0 {
		if a.loading {
			b.WriteString(a.styles.Description.Render("Scanning providers..."))
		} else {
			b.WriteString(a.styles.Description.Render("No packages found. Press r to rescan."))
		}
		return b.String()
	}

	visibleHeight := a.VisibleHeight()
	scroll := a.Scroll()
	cursor := a.Cursor()

	end := scroll + visibleHeight
	if end > len(pkgs) {
		end = len(pkgs)
	}

	for i := scroll; i < end; i++ {
		b.WriteString(a.renderPackageLine(pkgs[i], i == cursor))
		b.WriteString("\n")
	}

	a.writeScrollIndicator(&b, len(pkgs))

	return b.String()
}

// renderPackageLine renders a single package line
func (a *App) renderPackageLine(pkg *registry.Package, selected bool) string {
	prefix := "  "
	if selected {
		prefix = a.styles.ListItemSelected.String()
	}

	name := a.styles.PackageName.Render(pkg.Name)
	if !selected {
		name = lipgloss.NewStyle().Foreground(ColorText).Render(pkg.Name)
	}

	version := a.styles.PackageVersion.Render(pkg.Version)
	provider := ProviderBadge(pkg.Provider)

	installedMark := ""
	if _, ok := a.metadata.Get(pkg.Name); ok {
		installedMark = a.styles.Success.Render(" *")
	}

	maxDescWidth := a.width - lipgloss.Width(prefix) - lipgloss.Width(name) -
		lipgloss.Width(version) - lipgloss.Width(provider) - 10
	desc := pkg.Description
	if len(desc) > maxDescWidth && maxDescWidth > 3 {
		desc = desc[:maxDescWidth-3] + "..."
	}

	return fmt.Sprintf("%s%-25s %s %s%s %s", prefix, name, version, provider,
		installedMark, a.styles.PackageDesc.Render(desc))
}

// writeScrollIndicator appends a position indicator when the list does
// not fit in the window.
func (a *App) writeScrollIndicator(b *strings.Builder, total int) {
	visibleHeight := a.VisibleHeight()
	if total <= visibleHeight {
		return
	}
	scroll := a.Scroll()
	cursor := a.Cursor()
	scrollPct := float64(scroll) / float64(total-visibleHeight) * 100
	b.WriteString(a.styles.Description.Render(
		fmt.Sprintf("\n  %.0f%% (%d/%d)", scrollPct, cursor+1, total)))
}

// renderHistoryView renders the operations log.
func (a *App) renderHistoryView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Operation History"))
	b.WriteString("\n\n")

	if len(a.historyEntries) == 0 {
		b.WriteString(a.styles.Description.Render("No history entries"))
		return b.String()
	}

	cursor := a.Cursor()
	for i, entry := range a.historyEntries {
		if i >= a.VisibleHeight() {
			break
		}

		status := a.styles.Success.Render("OK")
		if !entry.Success {
			status = a.styles.Error.Render("FAILED")
		}

		prefix := "  "
		if i == cursor {
			prefix = a.styles.ListItemSelected.String()
		}

		timestamp := entry.Timestamp.Local().Format("2006-01-02 15:04")
		op := string(entry.Operation)
		pkgs := strings.Join(entry.Packages, ", ")
		if len(pkgs) > 40 {
			pkgs = pkgs[:37] + "..."
		}

		b.WriteString(fmt.Sprintf("%s%s  %-10s  %-40s  %s\n", prefix, timestamp, op, pkgs, status))
	}

	return b.String()
}

// renderDetailsView renders package details
func (a *App) renderDetailsView() string {
	var b strings.Builder

	if a.selectedPkg == nil {
		b.WriteString(a.styles.Error.Render("No package selected"))
		return b.String()
	}

	pkg := a.selectedPkg

	b.WriteString(a.styles.Title.Render(pkg.Name))
	b.WriteString(" ")
	b.WriteString(ProviderBadge(pkg.Provider))
	b.WriteString("\n\n")

	b.WriteString(a.styles.Subtitle.Render("Version: "))
	b.WriteString(a.styles.PackageVersion.Render(pkg.Version))
	b.WriteString("\n\n")

	if pkg.Description != "" {
		b.WriteString(a.styles.Subtitle.Render("Description"))
		b.WriteString("\n")
		b.WriteString(a.styles.Description.Render(pkg.Description))
		b.WriteString("\n\n")
	}

	if len(pkg.Binaries) > 0 {
		b.WriteString(a.styles.Subtitle.Render("Binaries: "))
		b.WriteString(strings.Join(pkg.Binaries, ", "))
		b.WriteString("\n\n")
	}

	if len(pkg.Dependencies) > 0 {
		b.WriteString(a.styles.Subtitle.Render("Dependencies: "))
		b.WriteString(strings.Join(pkg.Dependencies, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString(a.styles.Subtitle.Render("Status: "))
	if a.selectedRec != nil {
		b.WriteString(a.styles.Success.Render("Installed " + a.selectedRec.InstalledVersion))
		if a.selectedRec.InstalledVersion != pkg.Version {
			b.WriteString(a.styles.Warning.Render("  (provider has " + pkg.Version + ")"))
		}
		b.WriteString("\n")
		b.WriteString(a.styles.Subtitle.Render("From: "))
		b.WriteString(a.selectedRec.InstalledFrom)
		b.WriteString("\n")
		if len(a.selectedRec.Files) > 0 {
			b.WriteString(a.styles.Subtitle.Render("Files: "))
			b.WriteString(a.styles.Description.Render(strings.Join(a.selectedRec.Files, ", ")))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(a.styles.Info.Render("Not installed"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Description.Render("  [b] Back"))
	b.WriteString("\n")

	return b.String()
}

// renderHelpView renders the help view
func (a *App) renderHelpView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title string
		keys  []struct{ key, desc string }
	}{
		{
			title: "Navigation",
			keys: []struct{ key, desc string }{
				{"j/k or Up/Down", "Move cursor"},
				{"g/G", "Go to top/bottom"},
				{"PgUp/PgDn", "Page up/down"},
				{"1-3", "Switch tabs"},
				{"Left/Right", "Previous/next tab"},
			},
		},
		{
			title: "Actions",
			keys: []struct{ key, desc string }{
				{"Enter", "View details"},
				{"/", "Filter list"},
				{"r", "Refresh current tab"},
			},
		},
		{
			title: "General",
			keys: []struct{ key, desc string }{
				{"?", "Toggle help"},
				{"Esc/b", "Go back"},
				{"q", "Quit"},
			},
		},
	}

	for _, section := range sections {
		b.WriteString(a.styles.Subtitle.Render(section.title))
		b.WriteString("\n")
		for _, k := range section.keys {
			b.WriteString(fmt.Sprintf("  %-20s%s %s\n",
				a.styles.HelpKey.Render(k.key),
				a.styles.HelpSep.String(),
				a.styles.HelpDesc.Render(k.desc)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderFooter renders the footer bar
func (a *App) renderFooter() string {
	var hints []string

	switch a.activeView {
	case ViewInstalled, ViewAvailable:
		hints = []string{"Enter:details", "/:filter", "r:refresh"}
	case ViewDetails:
		hints = []string{"b:back"}
	case ViewHistory:
		hints = []string{"r:refresh"}
	}

	hints = append(hints, "?:help", "q:quit")

	footer := strings.Join(hints, "  ")
	return lipgloss.NewStyle().
		Width(a.width).
		Background(ColorBgAlt).
		Foreground(ColorMuted).
		Padding(0, 1).
		Render(footer)
}

// startFilter initiates filter input
func (a *App) startFilter() {
	a.textInput.SetValue(a.filterText)
	a.textInput.Focus()
	a.StartInput("Filter: ", func(filter string) {
		a.filterText = filter
		a.SetCursor(0)
		a.SetScroll(0)
	})
}

// ensureAvailable triggers the provider scan the first time the
// available tab opens.
func (a *App) ensureAvailable() tea.Cmd {
	if a.availableOnce {
		return nil
	}
	a.availableOnce = true
	a.SetLoading(true, "Scanning providers...")
	return a.loadAvailable()
}

// Async commands

func (a *App) loadInstalled() tea.Cmd {
	return func() tea.Msg {
		names := a.metadata.Names()
		rows := make([]InstalledRow, 0, len(names))
		for _, name := range names {
			rec, ok := a.metadata.Get(name)
			if !ok {
				continue
			}
			rows = append(rows, InstalledRow{
				Name:    name,
				Version: rec.InstalledVersion,
				From:    rec.InstalledFrom,
				Date:    rec.InstallDate,
			})
		}
		return installedLoadedMsg{rows: rows}
	}
}

func (a *App) loadAvailable() tea.Cmd {
	return func() tea.Msg {
		pkgs, err := a.registry.ListPackages(context.Background(), "")
		return availableLoadedMsg{packages: pkgs, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if a.historyStore == nil {
			return historyLoadedMsg{}
		}

		entries, err := a.historyStore.List(50)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

// loadInstalledDetails joins an installed row with what its provider
// currently publishes. When the provider tree is unreachable the view
// falls back to local metadata alone.
func (a *App) loadInstalledDetails(row InstalledRow) tea.Cmd {
	return func() tea.Msg {
		var rec *install.Record
		if r, ok := a.metadata.Get(row.Name); ok {
			rec = &r
		}

		ref := registry.PackageReference{Provider: row.From, Name: row.Name}
		if pkg, err := a.registry.PackageInfo(ref); err == nil {
			return detailsLoadedMsg{pkg: pkg, rec: rec}
		}

		// Provider gone or unreadable. Synthesize from the record.
		pkg := &registry.Package{
			Name:     row.Name,
			Version:  row.Version,
			Provider: row.From,
		}
		return detailsLoadedMsg{pkg: pkg, rec: rec}
	}
}

// Run starts the TUI application
func Run(reg *registry.Registry, meta *install.Metadata, historyStore *history.Store) error {
	app := NewApp(reg, meta, historyStore)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
