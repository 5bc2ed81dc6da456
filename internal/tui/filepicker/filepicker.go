// ABOUTME: File picker TUI component for choosing a CV to upload
// ABOUTME: Shows recent CVs, a path input, and PDFs in the working directory

package filepicker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// State represents the current UI state
type state int

const (
	stateList state = iota
	stateInput
	stateLocal
)

// FileSelectedMsg is sent when a valid CV is chosen
type FileSelectedMsg struct {
	Path string
	Size int64
}

// CancelledMsg is sent when the user cancels
type CancelledMsg struct{}

// FilePicker is the file selection component
type FilePicker struct {
	recentFiles []string
	local       []Candidate
	cursor      int
	state       state
	textInput   textinput.Model
	err         string
	width       int
	height      int
}

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	selectedStyle = lipgloss.NewStyle().Foreground(styles.Accent)
	normalStyle   = lipgloss.NewStyle().Foreground(styles.Text)
	errorStyle    = lipgloss.NewStyle().Foreground(styles.Danger)
	helpStyle     = lipgloss.NewStyle().Foreground(styles.Muted)
	dividerStyle  = lipgloss.NewStyle().Foreground(styles.Surface)
)

// New creates a new FilePicker
func New(recentFiles []string, local []Candidate) *FilePicker {
	ti := textinput.New()
	ti.Placeholder = "~/Documents/cv.pdf"
	ti.CharLimit = 256
	ti.Width = 60

	return &FilePicker{
		recentFiles: recentFiles,
		local:       local,
		state:       stateList,
		textInput:   ti,
	}
}

// Init implements tea.Model
func (fp *FilePicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (fp *FilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fp.width = msg.Width
		fp.height = msg.Height
		return fp, nil

	case tea.KeyMsg:
		fp.err = ""

		switch fp.state {
		case stateList:
			return fp.updateList(msg)
		case stateInput:
			return fp.updateInput(msg)
		case stateLocal:
			return fp.updateLocal(msg)
		}
	}

	return fp, nil
}

func (fp *FilePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < fp.listItemCount()-1 {
			fp.cursor++
		}
	case "enter":
		return fp.selectListItem()
	case "esc", "b":
		return fp, func() tea.Msg { return CancelledMsg{} }
	}

	return fp, nil
}

func (fp *FilePicker) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fp.state = stateList
		fp.textInput.SetValue("")
		return fp, nil
	case "enter":
		path := strings.TrimSpace(fp.textInput.Value())
		if path == "" {
			fp.err = "Please enter a file path"
			return fp, nil
		}
		return fp.choose(path)
	}

	var cmd tea.Cmd
	fp.textInput, cmd = fp.textInput.Update(msg)
	return fp, cmd
}

func (fp *FilePicker) updateLocal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxItems := len(fp.local) + 1 // +1 for [back]

	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < maxItems-1 {
			fp.cursor++
		}
	case "enter":
		if fp.cursor == len(fp.local) {
			fp.state = stateList
			fp.cursor = 0
			return fp, nil
		}
		return fp.choose(fp.local[fp.cursor].Path)
	case "esc", "b":
		fp.state = stateList
		fp.cursor = 0
		return fp, nil
	}

	return fp, nil
}

func (fp *FilePicker) listItemCount() int {
	count := len(fp.recentFiles) + 1 // +1 for "Enter path..."
	if len(fp.local) > 0 {
		count++
	}
	return count
}

func (fp *FilePicker) selectListItem() (tea.Model, tea.Cmd) {
	recentCount := len(fp.recentFiles)

	if fp.cursor < recentCount {
		return fp.choose(fp.recentFiles[fp.cursor])
	}

	if fp.cursor == recentCount {
		fp.state = stateInput
		fp.textInput.Focus()
		return fp, textinput.Blink
	}

	if len(fp.local) > 0 && fp.cursor == recentCount+1 {
		fp.state = stateLocal
		fp.cursor = 0
		return fp, nil
	}

	return fp, nil
}

// choose checks path is an uploadable CV without reading it.
func (fp *FilePicker) choose(path string) (tea.Model, tea.Cmd) {
	expandedPath := expandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			fp.err = "File not found: " + path
		case os.IsPermission(err):
			fp.err = "Cannot read file: permission denied"
		default:
			fp.err = "Error reading file: " + err.Error()
		}
		return fp, nil
	}
	if info.IsDir() {
		fp.err = "Not a file: " + path
		return fp, nil
	}
	if err := client.CheckCV(info.Name(), info.Size()); err != nil {
		fp.err = err.Error()
		return fp, nil
	}

	if abs, err := filepath.Abs(expandedPath); err == nil {
		expandedPath = abs
	}
	size := info.Size()
	return fp, func() tea.Msg {
		return FileSelectedMsg{Path: expandedPath, Size: size}
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}

// SetError sets an error message to display
func (fp *FilePicker) SetError(msg string) {
	fp.err = msg
}

// View implements tea.Model
func (fp *FilePicker) View() string {
	switch fp.state {
	case stateInput:
		return fp.viewInput()
	case stateLocal:
		return fp.viewLocal()
	default:
		return fp.viewList()
	}
}

func (fp *FilePicker) item(b *strings.Builder, idx int, label string) {
	cursor := "  "
	style := normalStyle
	if idx == fp.cursor {
		cursor = "> "
		style = selectedStyle
	}
	b.WriteString(cursor + style.Render(label) + "\n")
}

func (fp *FilePicker) viewList() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select CV (PDF, max 10 MB)"))
	b.WriteString("\n\n")

	if len(fp.recentFiles) > 0 {
		b.WriteString(helpStyle.Render("Recent files:"))
		b.WriteString("\n")
		for i, path := range fp.recentFiles {
			display := path
			if len(display) > fp.width-10 && fp.width > 20 {
				display = "..." + display[len(display)-(fp.width-13):]
			}
			fp.item(&b, i, display)
		}
		b.WriteString("\n")

		dividerWidth := min(40, fp.width-4)
		if dividerWidth < 1 {
			dividerWidth = 40
		}
		b.WriteString(dividerStyle.Render(strings.Repeat("─", dividerWidth)))
		b.WriteString("\n")
	}

	idx := len(fp.recentFiles)
	fp.item(&b, idx, "Enter path...")
	if len(fp.local) > 0 {
		fp.item(&b, idx+1, "PDFs in this directory...")
	}

	if fp.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + fp.err))
	}

	return b.String()
}

func (fp *FilePicker) viewInput() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Enter file path"))
	b.WriteString("\n\n")
	b.WriteString(fp.textInput.View())

	if fp.err != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Error: " + fp.err))
	}

	return b.String()
}

func (fp *FilePicker) viewLocal() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select PDF"))
	b.WriteString("\n\n")

	for i, c := range fp.local {
		fp.item(&b, i, c.Name)
	}
	fp.item(&b, len(fp.local), "[back]")

	if fp.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + fp.err))
	}

	return b.String()
}
