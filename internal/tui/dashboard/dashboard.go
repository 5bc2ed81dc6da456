// ABOUTME: Role dashboard: loads a summary for the signed-in user and renders it
// ABOUTME: Fetches independent resources in parallel and shows them as metric blocks

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/icons"
	"github.com/markalston/placement-cli/internal/tui/styles"
	"github.com/markalston/placement-cli/internal/tui/widgets"
)

// API is the backend surface the dashboard reads.
type API interface {
	UnreadCount(ctx context.Context) (int, error)
	ListOffers(ctx context.Context, f model.OfferFilter) (model.Page[model.Offer], error)
	MyOffers(ctx context.Context) (model.Page[model.Offer], error)
	MyApplications(ctx context.Context) (model.Page[model.Application], error)
	ListApplications(ctx context.Context, offerID int) (model.Page[model.Application], error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListInterns(ctx context.Context) ([]model.InternProfile, error)
	ListCompanies(ctx context.Context) ([]model.CompanyProfile, error)
}

// Summary holds the figures shown on a dashboard. Only the fields for Role
// are populated.
type Summary struct {
	Role   model.Role `json:"role"`
	Name   string     `json:"name"`
	Unread int        `json:"unread_notifications"`

	OpenOffers   int                             `json:"open_offers,omitempty"`
	Applications map[model.ApplicationStatus]int `json:"applications,omitempty"`
	HasCV        bool                            `json:"has_cv,omitempty"`

	Offers       int `json:"offers,omitempty"`
	ActiveOffers int `json:"active_offers,omitempty"`
	Slots        int `json:"slots,omitempty"`
	SlotsTaken   int `json:"slots_taken,omitempty"`
	Pending      int `json:"pending_applications,omitempty"`

	Users     int `json:"users,omitempty"`
	Interns   int `json:"interns,omitempty"`
	Companies int `json:"companies,omitempty"`
}

// Load gathers the summary for u. The unread count never fails the load;
// any other failure does.
func Load(ctx context.Context, api API, u model.User) (*Summary, error) {
	if u == nil {
		return nil, fmt.Errorf("loading dashboard: no user")
	}
	s := &Summary{Role: u.Role(), Name: u.DisplayName()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := api.UnreadCount(ctx)
		if err != nil {
			slog.Debug("Unread count unavailable", "error", err)
			n = 0
		}
		s.Unread = n
		return nil
	})

	switch v := u.(type) {
	case model.InternUser:
		s.HasCV = v.Profile.HasCV()
		g.Go(func() error {
			page, err := api.ListOffers(ctx, model.OfferFilter{})
			if err != nil {
				return fmt.Errorf("loading offers: %w", err)
			}
			s.OpenOffers = page.Count
			return nil
		})
		g.Go(func() error {
			page, err := api.MyApplications(ctx)
			if err != nil {
				return fmt.Errorf("loading applications: %w", err)
			}
			s.Applications = map[model.ApplicationStatus]int{}
			for _, a := range page.Results {
				s.Applications[a.Status]++
			}
			return nil
		})

	case model.CompanyUser:
		g.Go(func() error {
			page, err := api.MyOffers(ctx)
			if err != nil {
				return fmt.Errorf("loading offers: %w", err)
			}
			s.Offers = page.Count
			for _, o := range page.Results {
				if o.Active {
					s.ActiveOffers++
				}
				s.Slots += o.Slots
				s.SlotsTaken += o.SlotsTaken
			}
			return nil
		})
		g.Go(func() error {
			page, err := api.ListApplications(ctx, 0)
			if err != nil {
				return fmt.Errorf("loading applications: %w", err)
			}
			for _, a := range page.Results {
				if a.Status == model.StatusPending {
					s.Pending++
				}
			}
			return nil
		})

	case model.AdminUser:
		g.Go(func() error {
			users, err := api.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("loading users: %w", err)
			}
			s.Users = len(users)
			return nil
		})
		g.Go(func() error {
			interns, err := api.ListInterns(ctx)
			if err != nil {
				return fmt.Errorf("loading interns: %w", err)
			}
			s.Interns = len(interns)
			return nil
		})
		g.Go(func() error {
			companies, err := api.ListCompanies(ctx)
			if err != nil {
				return fmt.Errorf("loading companies: %w", err)
			}
			s.Companies = len(companies)
			return nil
		})
		g.Go(func() error {
			page, err := api.ListOffers(ctx, model.OfferFilter{})
			if err != nil {
				return fmt.Errorf("loading offers: %w", err)
			}
			s.Offers = page.Count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dashboard renders a Summary.
type Dashboard struct {
	summary *Summary
	width   int
	height  int
}

// New creates a dashboard for summary, which may be nil while loading.
func New(summary *Summary, width, height int) *Dashboard {
	return &Dashboard{summary: summary, width: width, height: height}
}

// Update replaces the summary.
func (d *Dashboard) Update(summary *Summary) {
	d.summary = summary
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.summary == nil {
		return styles.Panel.Width(d.width).Render("Loading dashboard...")
	}
	s := d.summary

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(s.Role.Label() + " dashboard"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("Welcome, " + s.Name))
	sb.WriteString("\n")

	cfg := widgets.DefaultMetricBlockConfig()
	blocks := []string{widgets.CountBlock(icons.Bell, "Unread", s.Unread, "notifications", cfg)}

	switch s.Role {
	case model.RoleIntern:
		cv := "missing"
		if s.HasCV {
			cv = "uploaded"
		}
		blocks = append(blocks,
			widgets.CountBlock(icons.Offer, "Open offers", s.OpenOffers, "available now", cfg),
			widgets.CountBlock(icons.Application, "Pending", s.Applications[model.StatusPending], "applications", cfg),
			widgets.CountBlock(icons.CheckOK, "Accepted", s.Applications[model.StatusAccepted], "applications", cfg),
			widgets.MetricBlock(icons.Document, "CV", cv, "PDF, 10 MB max", cfg),
		)
	case model.RoleCompany:
		fill := 0.0
		if s.Slots > 0 {
			fill = float64(s.SlotsTaken) / float64(s.Slots) * 100
		}
		blocks = append(blocks,
			widgets.CountBlock(icons.Offer, "Offers", s.Offers, fmt.Sprintf("%d active", s.ActiveOffers), cfg),
			widgets.CountBlock(icons.Application, "To review", s.Pending, "pending applications", cfg),
			widgets.MetricBlockWithBar(icons.Slots, "Slots filled", fill, fmt.Sprintf("%d of %d", s.SlotsTaken, s.Slots), cfg),
		)
	case model.RoleAdmin:
		blocks = append(blocks,
			widgets.CountBlock(icons.User, "Users", s.Users, "accounts", cfg),
			widgets.CountBlock(icons.User, "Interns", s.Interns, "profiles", cfg),
			widgets.CountBlock(icons.Company, "Companies", s.Companies, "profiles", cfg),
			widgets.CountBlock(icons.Offer, "Offers", s.Offers, "published", cfg),
		)
	}

	sb.WriteString(layoutBlocks(blocks, d.width))

	return lipgloss.NewStyle().
		Width(d.width).
		Height(d.height).
		Render(sb.String())
}

// layoutBlocks arranges blocks in rows that fit width.
func layoutBlocks(blocks []string, width int) string {
	perRow := max(1, width/(widgets.DefaultMetricBlockConfig().Width+1))
	var rows []string
	for i := 0; i < len(blocks); i += perRow {
		end := min(i+perRow, len(blocks))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
