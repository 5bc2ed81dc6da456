// ABOUTME: Application commands: apply, list, mine, for-offer, accept, reject, withdraw
// ABOUTME: Interns apply to offers; companies review the applications they receive

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/model"
)

var (
	applyLetter       string
	applicationsOffer int
	applicationArgs   []string
)

// withArgs stores args for the run function and executes it.
func withArgs(dst *[]string, fn runFunc) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, args []string) {
		*dst = args
		execute(fn)
	}
}

var applyCmd = &cobra.Command{
	Use:   "apply OFFER_ID",
	Short: "Apply to an offer",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&applicationArgs, runApply),
}

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"candidatures"},
	Short:   "List and review applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications visible to you",
	Run:   command(runApplicationsList),
}

var applicationsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your applications",
	Run:   command(runApplicationsMine),
}

var applicationsForOfferCmd = &cobra.Command{
	Use:   "for-offer OFFER_ID",
	Short: "List the applications received for one of your offers",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&applicationArgs, runApplicationsForOffer),
}

var applicationsAcceptCmd = &cobra.Command{
	Use:   "accept APPLICATION_ID",
	Short: "Accept an application",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&applicationArgs, runApplicationsAccept),
}

var applicationsRejectCmd = &cobra.Command{
	Use:   "reject APPLICATION_ID",
	Short: "Reject an application",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&applicationArgs, runApplicationsReject),
}

var applicationsWithdrawCmd = &cobra.Command{
	Use:   "withdraw APPLICATION_ID",
	Short: "Withdraw one of your applications",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&applicationArgs, runApplicationsWithdraw),
}

func init() {
	rootCmd.AddCommand(applyCmd, applicationsCmd)
	applicationsCmd.AddCommand(applicationsListCmd, applicationsMineCmd, applicationsForOfferCmd,
		applicationsAcceptCmd, applicationsRejectCmd, applicationsWithdrawCmd)

	applyCmd.Flags().StringVar(&applyLetter, "letter", "", "Cover letter")
	applicationsListCmd.Flags().IntVar(&applicationsOffer, "offer", 0, "Only applications for this offer")
}

func runApply(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, applicationArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleIntern); code != 0 {
		return code
	}

	app, err := d.api.Apply(ctx, model.ApplicationInput{OfferID: id, CoverLetter: applyLetter})
	if err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, app)
	}
	title := ""
	if app.Offer != nil {
		title = ": " + app.Offer.Title
	}
	fmt.Fprintf(w, "Application #%d sent for offer #%d%s\n", app.ID, id, title)
	return 0
}

func runApplicationsList(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w); code != 0 {
		return code
	}
	page, err := d.api.ListApplications(ctx, applicationsOffer)
	if err != nil {
		return failure(w, err)
	}
	return printApplications(w, page)
}

func runApplicationsMine(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleIntern); code != 0 {
		return code
	}
	page, err := d.api.MyApplications(ctx)
	if err != nil {
		return failure(w, err)
	}
	return printApplications(w, page)
}

func runApplicationsForOffer(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, applicationArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleCompany, model.RoleAdmin); code != 0 {
		return code
	}
	page, err := d.api.ApplicationsForOffer(ctx, id)
	if err != nil {
		return failure(w, err)
	}
	return printApplications(w, page)
}

func printApplications(w io.Writer, page model.Page[model.Application]) int {
	if IsJSONOutput() {
		return printJSON(w, page)
	}
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No applications found.")
		return 0
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOFFER\tAPPLICANT\tSTATUS\tAPPLIED")
	for _, a := range page.Results {
		offer := ""
		if a.Offer != nil {
			offer = fmt.Sprintf("#%d %s", a.Offer.ID, a.Offer.Title)
		}
		applicant := ""
		if a.Applicant != nil {
			applicant = a.Applicant.Email()
			if name := a.Applicant.FirstName + " " + a.Applicant.LastName; name != " " {
				applicant = name + " <" + applicant + ">"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.ID, offer, applicant, a.Status.Label(), dateOnly(a.AppliedAt))
	}
	tw.Flush()
	return 0
}

// dateOnly trims an RFC 3339 timestamp to its date.
func dateOnly(ts string) string {
	if len(ts) >= len(model.DateLayout) {
		return ts[:len(model.DateLayout)]
	}
	return ts
}

func decide(ctx context.Context, d *deps, w io.Writer, accept bool) int {
	id, ok := parseID(w, applicationArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleCompany); code != 0 {
		return code
	}

	var (
		app *model.Application
		err error
	)
	if accept {
		app, err = d.api.AcceptApplication(ctx, id)
	} else {
		app, err = d.api.RejectApplication(ctx, id)
	}
	if err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, app)
	}
	fmt.Fprintf(w, "Application #%d is now %s\n", app.ID, app.Status.Label())
	return 0
}

func runApplicationsAccept(ctx context.Context, d *deps, w io.Writer) int {
	return decide(ctx, d, w, true)
}

func runApplicationsReject(ctx context.Context, d *deps, w io.Writer) int {
	return decide(ctx, d, w, false)
}

func runApplicationsWithdraw(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, applicationArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleIntern, model.RoleAdmin); code != 0 {
		return code
	}
	if err := d.api.WithdrawApplication(ctx, id); err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, map[string]any{"withdrawn": id})
	}
	fmt.Fprintf(w, "Withdrew application #%d\n", id)
	return 0
}
