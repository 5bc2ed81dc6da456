// ABOUTME: Offer commands: list, show, mine, create, update, delete
// ABOUTME: Browse published internship offers and manage a company's own offers

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/model"
)

var (
	offerSearch     string
	offerCity       string
	offerDomain     string
	offerActiveOnly bool
	offerPage       int

	offerInput model.OfferInput
	offerArgs  []string
	// offerChanged reports which offer flags were set, for partial updates.
	offerChanged func(name string) bool
)

var offersCmd = &cobra.Command{
	Use:     "offers",
	Aliases: []string{"offres"},
	Short:   "Browse and manage internship offers",
}

var offersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List offers visible to you",
	Long: `List offers. Anonymous users and interns see offers that are open for
applications; companies see their own offers; administrators see all offers.`,
	Run: command(runOffersList),
}

var offersShowCmd = &cobra.Command{
	Use:   "show OFFER_ID",
	Short: "Show one offer",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&offerArgs, runOffersShow),
}

var offersMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your company's offers",
	Run:   command(runOffersMine),
}

var offersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new offer",
	Run: func(cmd *cobra.Command, args []string) {
		offerChanged = cmd.Flags().Changed
		execute(runOffersCreate)
	},
}

var offersUpdateCmd = &cobra.Command{
	Use:   "update OFFER_ID",
	Short: "Change fields of an offer",
	Long:  `Change an offer. Only the flags you pass are modified.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		offerArgs = args
		offerChanged = cmd.Flags().Changed
		execute(runOffersUpdate)
	},
}

var offersDeleteCmd = &cobra.Command{
	Use:   "delete OFFER_ID",
	Short: "Delete an offer and its applications",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&offerArgs, runOffersDelete),
}

func init() {
	rootCmd.AddCommand(offersCmd)
	offersCmd.AddCommand(offersListCmd, offersShowCmd, offersMineCmd, offersCreateCmd, offersUpdateCmd, offersDeleteCmd)

	offersListCmd.Flags().StringVar(&offerSearch, "search", "", "Match title, description or company name")
	offersListCmd.Flags().StringVar(&offerCity, "city", "", "Filter by city")
	offersListCmd.Flags().StringVar(&offerDomain, "domain", "", "Filter by domain")
	offersListCmd.Flags().BoolVar(&offerActiveOnly, "active", false, "Only active offers")
	offersListCmd.Flags().IntVar(&offerPage, "page", 0, "Result page")

	for _, c := range []*cobra.Command{offersCreateCmd, offersUpdateCmd} {
		f := c.Flags()
		f.StringVar(&offerInput.Title, "title", "", "Title")
		f.StringVar((*string)(&offerInput.Type), "type", string(model.TypeFinalProject), "OBSERVATION, INITIATION, PERFECTIONNEMENT or PFE")
		f.StringVar(&offerInput.Domain, "domain", "", "Domain")
		f.StringVar(&offerInput.Description, "description", "", "Description")
		f.StringVar(&offerInput.RequiredSkills, "skills", "", "Required skills")
		f.StringVar(&offerInput.Duration, "duration", "", "Duration, e.g. '6 mois'")
		f.StringVar(&offerInput.StartDate, "start", "", "Start date (YYYY-MM-DD)")
		f.StringVar(&offerInput.Deadline, "deadline", "", "Application deadline (YYYY-MM-DD)")
		f.StringVar(&offerInput.City, "city", "", "City")
		f.StringVar(&offerInput.Pay, "pay", "", "Monthly pay")
		f.IntVar(&offerInput.Slots, "slots", 1, "Number of places")
		f.BoolVar(&offerInput.Active, "active", true, "Accept applications")
	}
}

func parseID(w io.Writer, s string) (int, bool) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		fmt.Fprintf(w, "Error: invalid id %q\n", s)
		return 0, false
	}
	return id, true
}

// runOffersList needs no session; a stored one only widens visibility.
func runOffersList(ctx context.Context, d *deps, w io.Writer) int {
	d.session.Restore(ctx)

	f := model.OfferFilter{Search: offerSearch, City: offerCity, Domain: offerDomain, Page: offerPage}
	if offerActiveOnly {
		active := true
		f.Active = &active
	}
	page, err := d.api.ListOffers(ctx, f)
	if err != nil {
		return failure(w, err)
	}
	return printOffers(w, page)
}

func runOffersMine(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleCompany); code != 0 {
		return code
	}
	page, err := d.api.MyOffers(ctx)
	if err != nil {
		return failure(w, err)
	}
	return printOffers(w, page)
}

func printOffers(w io.Writer, page model.Page[model.Offer]) int {
	if IsJSONOutput() {
		return printJSON(w, page)
	}
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No offers found.")
		return 0
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tCITY\tTYPE\tSTART\tPLACES\tSTATE")
	for _, o := range page.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			o.ID, o.Title, o.CompanyName(), o.City, o.Type, o.StartDate, o.SlotsTaken, o.Slots, o.State())
	}
	tw.Flush()
	if page.Count > len(page.Results) {
		fmt.Fprintf(w, "Showing %d of %d offers. Use --page for more.\n", len(page.Results), page.Count)
	}
	return 0
}

func runOffersShow(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, offerArgs[0])
	if !ok {
		return 2
	}
	d.session.Restore(ctx)

	o, err := d.api.GetOffer(ctx, id)
	if err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, o)
	}
	fmt.Fprintln(w, formatOffer(o))
	return 0
}

func formatOffer(o *model.Offer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (#%d)\n", o.Title, o.ID)
	if name := o.CompanyName(); name != "" {
		fmt.Fprintf(&sb, "Company:   %s\n", name)
	}
	fmt.Fprintf(&sb, "Type:      %s\n", o.Type)
	fmt.Fprintf(&sb, "Domain:    %s\n", o.Domain)
	fmt.Fprintf(&sb, "City:      %s\n", o.City)
	fmt.Fprintf(&sb, "Start:     %s\n", o.StartDate)
	fmt.Fprintf(&sb, "Duration:  %s\n", o.Duration)
	if o.Deadline != "" {
		fmt.Fprintf(&sb, "Deadline:  %s\n", o.Deadline)
	}
	if o.Pay != "" {
		fmt.Fprintf(&sb, "Pay:       %s\n", o.Pay)
	}
	fmt.Fprintf(&sb, "Places:    %d/%d taken\n", o.SlotsTaken, o.Slots)
	fmt.Fprintf(&sb, "State:     %s\n", o.State())
	if o.RequiredSkills != "" {
		fmt.Fprintf(&sb, "\nSkills: %s\n", o.RequiredSkills)
	}
	fmt.Fprintf(&sb, "\n%s", o.Description)
	return sb.String()
}

func runOffersCreate(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleCompany); code != 0 {
		return code
	}
	o, err := d.api.CreateOffer(ctx, offerInput)
	if err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, o)
	}
	fmt.Fprintf(w, "Created offer #%d: %s\n", o.ID, o.Title)
	return 0
}

// mergeOffer overlays the flags that were set onto the current offer.
func mergeOffer(cur model.OfferInput, in model.OfferInput, changed func(string) bool) model.OfferInput {
	if changed == nil {
		return cur
	}
	if changed("title") {
		cur.Title = in.Title
	}
	if changed("type") {
		cur.Type = in.Type
	}
	if changed("domain") {
		cur.Domain = in.Domain
	}
	if changed("description") {
		cur.Description = in.Description
	}
	if changed("skills") {
		cur.RequiredSkills = in.RequiredSkills
	}
	if changed("duration") {
		cur.Duration = in.Duration
	}
	if changed("start") {
		cur.StartDate = in.StartDate
	}
	if changed("deadline") {
		cur.Deadline = in.Deadline
	}
	if changed("city") {
		cur.City = in.City
	}
	if changed("pay") {
		cur.Pay = in.Pay
	}
	if changed("slots") {
		cur.Slots = in.Slots
	}
	if changed("active") {
		cur.Active = in.Active
	}
	return cur
}

func runOffersUpdate(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, offerArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleCompany, model.RoleAdmin); code != 0 {
		return code
	}

	cur, err := d.api.GetOffer(ctx, id)
	if err != nil {
		return failure(w, err)
	}
	o, err := d.api.UpdateOffer(ctx, id, mergeOffer(model.InputFromOffer(*cur), offerInput, offerChanged))
	if err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, o)
	}
	fmt.Fprintf(w, "Updated offer #%d: %s\n", o.ID, o.Title)
	return 0
}

func runOffersDelete(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, offerArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w, model.RoleCompany, model.RoleAdmin); code != 0 {
		return code
	}
	if err := d.api.DeleteOffer(ctx, id); err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, map[string]any{"deleted": id})
	}
	fmt.Fprintf(w, "Deleted offer #%d\n", id)
	return 0
}
