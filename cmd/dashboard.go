// ABOUTME: dashboard command: prints the role summary for the logged-in user
// ABOUTME: Shares the loader with the TUI dashboard screen

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a summary for your account",
	Long: `Show the dashboard summary for the logged-in account.

Interns see open offers and their applications by status, companies see
their offers, slots and pending applications, and administrators see
account counts.`,
	Run: command(runDashboard),
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w); code != 0 {
		return code
	}
	s, err := dashboard.Load(ctx, d.api, d.session.Snapshot().User)
	if err != nil {
		return failure(w, err)
	}

	if IsJSONOutput() {
		return printJSON(w, s)
	}
	printSummary(w, s)
	return 0
}

func printSummary(w io.Writer, s *dashboard.Summary) {
	fmt.Fprintf(w, "%s dashboard: %s\n", s.Role.Label(), s.Name)
	fmt.Fprintf(w, "  Unread notifications: %d\n", s.Unread)

	switch s.Role {
	case model.RoleIntern:
		cv := "no"
		if s.HasCV {
			cv = "yes"
		}
		fmt.Fprintf(w, "  Open offers:          %d\n", s.OpenOffers)
		fmt.Fprintf(w, "  CV uploaded:          %s\n", cv)
		for _, st := range []model.ApplicationStatus{model.StatusPending, model.StatusAccepted, model.StatusRejected} {
			fmt.Fprintf(w, "  %-22s%d\n", "Applications "+st.Label()+":", s.Applications[st])
		}
	case model.RoleCompany:
		fmt.Fprintf(w, "  Offers:               %d (%d active)\n", s.Offers, s.ActiveOffers)
		fmt.Fprintf(w, "  Slots taken:          %d/%d\n", s.SlotsTaken, s.Slots)
		fmt.Fprintf(w, "  Pending applications: %d\n", s.Pending)
	case model.RoleAdmin:
		fmt.Fprintf(w, "  Users:                %d\n", s.Users)
		fmt.Fprintf(w, "  Interns:              %d\n", s.Interns)
		fmt.Fprintf(w, "  Companies:            %d\n", s.Companies)
		fmt.Fprintf(w, "  Offers:               %d\n", s.Offers)
	}
}
