// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	if env := os.Getenv("PLACEMENT_NERD_FONTS"); env != "" {
		return env == "1" || strings.EqualFold(env, "true")
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")
	for _, t := range []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"} {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Domain objects
	Offer       = Icon{"󰃖", "◆"} // nf-md-briefcase
	Application = Icon{"󰈙", "▤"} // nf-md-file_document
	Document    = Icon{"󰈦", "▣"} // nf-md-file_pdf_box
	User        = Icon{"󰀄", "●"} // nf-md-account
	Company     = Icon{"󰇄", "▢"} // nf-md-domain
	Slots       = Icon{"󰋁", "▮"} // nf-md-database
	Bell        = Icon{"󰂚", "♪"} // nf-md-bell
	BellActive  = Icon{"󰂞", "♫"} // nf-md-bell_ring

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info
	Unread   = Icon{"󰧞", "•"} // nf-md-circle_small

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Menu    = Icon{"󰍜", "≡"} // nf-md-menu
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app

	// Application
	App = Icon{"󰑴", "◈"} // nf-md-school
)
