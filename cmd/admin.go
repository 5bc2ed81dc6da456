// ABOUTME: Administrator commands: users, interns, companies, toggle-active, delete
// ABOUTME: List accounts and profiles, enable or disable accounts, and remove records

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/model"
)

var (
	adminArgs   []string
	adminActive bool
	// adminActiveSet is true when --active was passed explicitly.
	adminActiveSet bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator tools",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user accounts",
	Run:   command(runAdminUsers),
}

var adminInternsCmd = &cobra.Command{
	Use:   "interns",
	Short: "List intern profiles",
	Run:   command(runAdminInterns),
}

var adminCompaniesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List company profiles",
	Run:   command(runAdminCompanies),
}

var adminToggleActiveCmd = &cobra.Command{
	Use:   "toggle-active USER_ID",
	Short: "Enable or disable an account",
	Long:  `Flip an account between active and disabled, or set it with --active=true|false.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		adminArgs = args
		adminActiveSet = cmd.Flags().Changed("active")
		execute(runAdminToggleActive)
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:       "delete users|stagiaires|entreprises ID",
	Short:     "Delete a user, intern profile or company profile",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(client.AdminUsers), string(client.AdminInterns), string(client.AdminCompanies)},
	Run:       withArgs(&adminArgs, runAdminDelete),
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd, adminInternsCmd, adminCompaniesCmd, adminToggleActiveCmd, adminDeleteCmd)

	adminToggleActiveCmd.Flags().BoolVar(&adminActive, "active", false, "Set the account state instead of flipping it")
}

func runAdminUsers(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleAdmin); code != 0 {
		return code
	}
	users, err := d.api.ListUsers(ctx)
	if err != nil {
		return failure(w, err)
	}

	if IsJSONOutput() {
		out := make([]model.UserEnvelope, len(users))
		for i, u := range users {
			out[i] = model.UserEnvelope{User: u}
		}
		return printJSON(w, out)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tNAME\tACTIVE")
	for _, u := range users {
		b := u.Base()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", b.ID, b.Email, u.Role().Label(), u.DisplayName(), b.IsActive)
	}
	tw.Flush()
	return 0
}

func runAdminInterns(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleAdmin); code != 0 {
		return code
	}
	interns, err := d.api.ListInterns(ctx)
	if err != nil {
		return failure(w, err)
	}

	if IsJSONOutput() {
		return printJSON(w, interns)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tCITY\tLEVEL\tCV")
	for _, p := range interns {
		fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\t%s\t%t\n", p.ID, p.FirstName, p.LastName, p.Domain, p.City, p.StudyLevel, p.HasCV())
	}
	tw.Flush()
	return 0
}

func runAdminCompanies(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleAdmin); code != 0 {
		return code
	}
	companies, err := d.api.ListCompanies(ctx)
	if err != nil {
		return failure(w, err)
	}

	if IsJSONOutput() {
		return printJSON(w, companies)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSECTOR\tCITY\tCONTACT")
	for _, p := range companies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\n", p.ID, p.CompanyName, p.Sector, p.City, p.ContactFirstName, p.ContactLastName)
	}
	tw.Flush()
	return 0
}

func runAdminToggleActive(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, adminArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleAdmin); code != 0 {
		return code
	}

	active := adminActive
	if !adminActiveSet {
		users, err := d.api.ListUsers(ctx)
		if err != nil {
			return failure(w, err)
		}
		found := false
		for _, u := range users {
			if u.Base().ID == id {
				active, found = !u.Base().IsActive, true
				break
			}
		}
		if !found {
			fmt.Fprintf(w, "Error: user #%d not found\n", id)
			return 1
		}
	}

	u, err := d.api.SetUserActive(ctx, id, active)
	if err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, model.UserEnvelope{User: u})
	}
	state := "disabled"
	if u.Base().IsActive {
		state = "active"
	}
	fmt.Fprintf(w, "%s is now %s\n", u.Base().Email, state)
	return 0
}

func runAdminDelete(ctx context.Context, d *deps, w io.Writer) int {
	resource := client.AdminResource(adminArgs[0])
	switch resource {
	case client.AdminUsers, client.AdminInterns, client.AdminCompanies:
	default:
		fmt.Fprintf(w, "Error: unknown resource %q (want users, stagiaires or entreprises)\n", adminArgs[0])
		return 2
	}
	id, ok := parseID(w, adminArgs[1])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleAdmin); code != 0 {
		return code
	}

	if err := d.api.AdminDelete(ctx, resource, id); err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, map[string]any{"deleted": id, "resource": resource})
	}
	fmt.Fprintf(w, "Deleted %s #%d\n", resource, id)
	return 0
}
