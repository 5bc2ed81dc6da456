package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
)

func TestApplicationLevel(t *testing.T) {
	tests := []struct {
		status model.ApplicationStatus
		want   StatusLevel
	}{
		{model.StatusAccepted, StatusOK},
		{model.StatusRejected, StatusCritical},
		{model.StatusPending, StatusWarning},
		{"UNKNOWN", StatusNeutral},
	}
	for _, tt := range tests {
		if got := ApplicationLevel(tt.status); got != tt.want {
			t.Errorf("ApplicationLevel(%s): expected %d, got %d", tt.status, tt.want, got)
		}
	}
}

func TestOfferBadge(t *testing.T) {
	tests := []struct {
		offer model.Offer
		want  string
	}{
		{model.Offer{Active: false}, "Inactive"},
		{model.Offer{Active: true, Expired: true}, "Expired"},
		{model.Offer{Active: true, Full: true}, "Full"},
		{model.Offer{Active: true}, "Open"},
	}
	for _, tt := range tests {
		if got := OfferBadge(tt.offer); !strings.Contains(got, tt.want) {
			t.Errorf("expected badge %q, got %q", tt.want, got)
		}
	}
}

func TestUnreadBadge(t *testing.T) {
	if got := UnreadBadge(0); got != icons.Bell.String() {
		t.Errorf("expected plain bell for zero, got %q", got)
	}
	if got := UnreadBadge(3); !strings.Contains(got, "3") {
		t.Errorf("expected count in badge, got %q", got)
	}
	if got := UnreadBadge(250); !strings.Contains(got, "99+") {
		t.Errorf("expected capped count, got %q", got)
	}
}

func TestSlotsBar(t *testing.T) {
	got := SlotsBar(1, 4, 8)
	if !strings.HasSuffix(got, "1/4") {
		t.Errorf("expected count suffix, got %q", got)
	}
	if w := lipgloss.Width(got); w != 8+len(" 1/4") {
		t.Errorf("expected width %d, got %d", 8+len(" 1/4"), w)
	}
	if got := SlotsBar(0, 0, 8); !strings.HasSuffix(got, "0/0") {
		t.Errorf("expected 0/0 for no slots, got %q", got)
	}
}

func TestCompactProgressBar_Clamps(t *testing.T) {
	for _, p := range []float64{-10, 0, 50, 100, 150} {
		if w := lipgloss.Width(CompactProgressBar(p, 10, lipgloss.Color("#fff"))); w != 10 {
			t.Errorf("percent %v: expected width 10, got %d", p, w)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Développeur", 8); got != "Dével..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}

func TestMetricBlock_LinesMatchWidth(t *testing.T) {
	cfg := DefaultMetricBlockConfig()
	block := MetricBlockWithBar(icons.Slots, "Slots filled", 50, "2 of 4 slots", cfg)
	for i, l := range strings.Split(block, "\n") {
		if w := lipgloss.Width(l); w != cfg.Width {
			t.Errorf("line %d: expected width %d, got %d (%q)", i, cfg.Width, w, l)
		}
	}
	if !strings.Contains(CountBlock(icons.Offer, "Offers", 7, "published", cfg), "7") {
		t.Error("expected count in block")
	}
}
