// ABOUTME: Messages screens use to ask the root model to navigate or report status
// ABOUTME: Keeps child screens independent of the router

package nav

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/client"
)

// NavigateMsg asks the router to show Path.
type NavigateMsg struct {
	Path string
}

// BackMsg asks the router to return to the previous route.
type BackMsg struct{}

// StatusMsg is a dismissible line shown in the footer.
type StatusMsg struct {
	Text  string
	Error bool
	At    time.Time
}

// To returns a command that navigates to path.
func To(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// Back returns a command that navigates to the previous route.
func Back() tea.Cmd {
	return func() tea.Msg { return BackMsg{} }
}

// Info returns a command that shows text in the status line.
func Info(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text, At: time.Now()} }
}

// Failure returns a command that shows err in the status line. API errors
// show their user-facing message.
func Failure(err error) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Text: ErrorText(err), Error: true, At: time.Now()}
	}
}

// ErrorText renders err for display.
func ErrorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
