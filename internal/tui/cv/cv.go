// ABOUTME: CV screen: shows the intern's CV status and uploads, removes or downloads it
// ABOUTME: Uploads go through the file picker; the session is updated with the returned profile

package cv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/filepicker"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/nav"
	"github.com/markalston/placement-cli/internal/tui/recentfiles"
	"github.com/markalston/placement-cli/internal/tui/styles"
)

// API is the backend surface the CV screen uses.
type API interface {
	UploadCV(ctx context.Context, name string, r io.Reader, size int64) (*model.InternProfile, error)
	DeleteCV(ctx context.Context) (*model.InternProfile, error)
	ViewCV(ctx context.Context, internID int) ([]byte, error)
}

// Session is where the updated profile is stored.
type Session interface {
	Snapshot() model.Session
	UpdateUser(ctx context.Context, u model.User) error
}

type profileMsg struct {
	profile *model.InternProfile
	done    string
	err     error
}

type savedMsg struct {
	path string
	err  error
}

// Screen manages the logged-in intern's CV.
type Screen struct {
	api       API
	session   Session
	recent    *recentfiles.RecentFiles
	configDir string
	picker    *filepicker.FilePicker
	confirm   bool
	busy      string
	width     int
	height    int
}

// New creates the CV screen. Downloads are written to configDir.
func New(api API, session Session, configDir string) *Screen {
	return &Screen{
		api:       api,
		session:   session,
		recent:    recentfiles.New(configDir),
		configDir: configDir,
	}
}

func (s *Screen) profile() model.InternProfile {
	u, _ := s.session.Snapshot().User.(model.InternUser)
	return u.Profile
}

// Init implements tea.Model
func (s *Screen) Init() tea.Cmd {
	return nil
}

// Picking reports whether the file picker is open.
func (s *Screen) Picking() bool { return s.picker != nil }

// Update implements tea.Model
func (s *Screen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case filepicker.FileSelectedMsg:
		s.busy = "Uploading " + filepath.Base(msg.Path) + "..."
		return s, s.upload(msg.Path, msg.Size)

	case filepicker.CancelledMsg:
		s.picker = nil
		return s, nil

	case profileMsg:
		s.busy = ""
		if msg.err != nil {
			if s.picker != nil {
				s.picker.SetError(nav.ErrorText(msg.err))
				return s, nil
			}
			return s, nav.Failure(msg.err)
		}
		s.picker = nil
		if err := s.store(msg.profile); err != nil {
			return s, nav.Failure(err)
		}
		return s, nav.Info(msg.done)

	case savedMsg:
		s.busy = ""
		if msg.err != nil {
			return s, nav.Failure(msg.err)
		}
		return s, nav.Info("CV saved to " + msg.path)

	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
	}

	key, isKey := msg.(tea.KeyMsg)
	if isKey && s.busy != "" {
		return s, nil
	}
	if s.picker != nil {
		_, cmd := s.picker.Update(msg)
		return s, cmd
	}
	if isKey {
		return s.updateKeys(key)
	}
	return s, nil
}

func (s *Screen) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if s.confirm {
		s.confirm = false
		if msg.String() == "y" {
			s.busy = "Removing CV..."
			return s, s.remove()
		}
		return s, nil
	}

	switch msg.String() {
	case "u":
		local, err := filepicker.Discover(".")
		if err != nil {
			slog.Debug("Could not list local PDFs", "error", err)
		}
		s.picker = filepicker.New(s.recent.List(), local)
		return s, s.picker.Init()
	case "d":
		if s.profile().HasCV() {
			s.confirm = true
		}
	case "v":
		if s.profile().HasCV() {
			s.busy = "Downloading CV..."
			return s, s.download()
		}
	}
	return s, nil
}

func (s *Screen) upload(path string, size int64) tea.Cmd {
	api, recent := s.api, s.recent
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return profileMsg{err: err}
		}
		defer f.Close()

		p, err := api.UploadCV(context.Background(), filepath.Base(path), f, size)
		if err != nil {
			return profileMsg{err: err}
		}
		if err := recent.Add(path); err != nil {
			slog.Warn("Could not record recent file", "path", path, "error", err)
		}
		return profileMsg{profile: p, done: "Uploaded " + filepath.Base(path)}
	}
}

func (s *Screen) remove() tea.Cmd {
	api := s.api
	return func() tea.Msg {
		p, err := api.DeleteCV(context.Background())
		return profileMsg{profile: p, done: "CV removed", err: err}
	}
}

func (s *Screen) download() tea.Cmd {
	api := s.api
	out := filepath.Join(s.configDir, fmt.Sprintf("cv-%d.pdf", s.profile().ID))
	return func() tea.Msg {
		data, err := api.ViewCV(context.Background(), 0)
		if err != nil {
			return savedMsg{err: err}
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o700); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: out, err: os.WriteFile(out, data, 0o600)}
	}
}

func (s *Screen) store(p *model.InternProfile) error {
	u, ok := s.session.Snapshot().User.(model.InternUser)
	if !ok || p == nil {
		return nil
	}
	u.Profile = *p
	if err := s.session.UpdateUser(context.Background(), u); err != nil {
		return fmt.Errorf("updating cached profile: %w", err)
	}
	return nil
}

// SetSize updates the dimensions
func (s *Screen) SetSize(width, height int) {
	s.width, s.height = width, height
	if s.picker != nil {
		s.picker.Update(tea.WindowSizeMsg{Width: width, Height: height})
	}
}

// View implements tea.Model
func (s *Screen) View() string {
	if s.picker != nil {
		view := s.picker.View()
		if s.busy != "" {
			view += "\n" + styles.Help.Render(s.busy)
		}
		return view
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Document.String() + " My CV"))
	sb.WriteString("\n\n")

	p := s.profile()
	if p.HasCV() {
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " CV on file"))
		sb.WriteString("\n")
		if p.CVFile != "" {
			sb.WriteString(styles.KeyStyle.Render("File: ") + filepath.Base(p.CVFile) + "\n")
		}
		if p.CVFileURL != "" {
			sb.WriteString(styles.KeyStyle.Render("URL:  ") + p.CVFileURL + "\n")
		}
	} else {
		sb.WriteString(styles.StatusWarning.Render(icons.Warning.String() + " No CV on file"))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Companies see your CV when you apply. PDF only, 10 MB max."))
	}

	switch {
	case s.busy != "":
		sb.WriteString("\n\n" + styles.Help.Render(s.busy))
	case s.confirm:
		sb.WriteString("\n\n" + styles.StatusWarning.Render("Remove your CV? y to confirm"))
	}
	return sb.String()
}
