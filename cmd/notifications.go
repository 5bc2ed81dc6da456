// ABOUTME: Notification commands: list, count, read, read-all, open, watch
// ABOUTME: Thin CLI front end over the notification synchronizer

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/notify"
)

var (
	notificationFilter string
	notificationArgs   []string
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notifs"},
	Short:   "Read and manage notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	Run:   command(runNotificationsList),
}

var notificationsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of unread notifications",
	Run:   command(runNotificationsCount),
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read NOTIFICATION_ID",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&notificationArgs, runNotificationsRead),
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Run:   command(runNotificationsReadAll),
}

var notificationsOpenCmd = &cobra.Command{
	Use:   "open NOTIFICATION_ID",
	Short: "Mark a notification read and show where it leads",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&notificationArgs, runNotificationsOpen),
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the unread count whenever it changes",
	Long:  `Poll the unread count at the configured interval until interrupted.`,
	Run:   command(runNotificationsWatch),
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd, notificationsCountCmd, notificationsReadCmd,
		notificationsReadAllCmd, notificationsOpenCmd, notificationsWatchCmd)

	notificationsListCmd.Flags().StringVar(&notificationFilter, "filter", "all", "unread, read or all")
}

func newSynchronizer(d *deps) *notify.Synchronizer {
	return notify.New(d.api, notify.WithInterval(d.cfg.PollInterval))
}

func runNotificationsList(ctx context.Context, d *deps, w io.Writer) int {
	filter, err := notify.ParseFilter(notificationFilter)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if code := d.require(ctx, w); code != 0 {
		return code
	}

	syncer := newSynchronizer(d)
	items := syncer.Open(ctx, filter)
	if syncer.Snapshot().State == notify.ListError {
		fmt.Fprintln(w, "Error: could not load notifications")
		return 2
	}

	if IsJSONOutput() {
		return printJSON(w, items)
	}
	if len(items) == 0 {
		if filter == notify.FilterAll {
			fmt.Fprintln(w, "No notifications.")
		} else {
			fmt.Fprintf(w, "No %s notifications.\n", filter)
		}
		return 0
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t \tDATE\tTITLE\tMESSAGE")
	for _, n := range items {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, mark, dateOnly(n.CreatedAt), n.Title, n.Message)
	}
	tw.Flush()
	return 0
}

// runNotificationsCount never fails on a backend error; the count is 0.
func runNotificationsCount(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w); code != 0 {
		return code
	}
	n := newSynchronizer(d).RefreshCount(ctx)
	if IsJSONOutput() {
		return printJSON(w, map[string]int{"unread_count": n})
	}
	fmt.Fprintln(w, n)
	return 0
}

func runNotificationsRead(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, notificationArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w); code != 0 {
		return code
	}
	if err := d.api.MarkRead(ctx, id); err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, map[string]any{"read": id})
	}
	fmt.Fprintf(w, "Marked notification #%d as read\n", id)
	return 0
}

func runNotificationsReadAll(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w); code != 0 {
		return code
	}
	syncer := newSynchronizer(d)
	if err := syncer.MarkAllRead(ctx); err != nil {
		return failure(w, err)
	}
	if IsJSONOutput() {
		return printJSON(w, map[string]int{"unread_count": syncer.Unread()})
	}
	fmt.Fprintln(w, "All notifications marked as read")
	return 0
}

// commandFor suggests the CLI equivalent of a route.
func commandFor(route string, role model.Role) string {
	if id := access.Param(access.OfferApplications, route); id != "" {
		if role == model.RoleIntern {
			return "placement applications mine"
		}
		return "placement applications for-offer " + id
	}
	if id := access.Param(access.OfferDetail, route); id != "" {
		return "placement offers show " + id
	}
	return ""
}

func runNotificationsOpen(ctx context.Context, d *deps, w io.Writer) int {
	id, ok := parseID(w, notificationArgs[0])
	if !ok {
		return 2
	}
	if code := d.require(ctx, w); code != 0 {
		return code
	}

	n, err := d.api.GetNotification(ctx, id)
	if err != nil {
		return failure(w, err)
	}
	syncer := newSynchronizer(d)
	route, hasRoute := syncer.Activate(ctx, *n)
	syncer.Wait()

	if IsJSONOutput() {
		out := map[string]any{"notification": n}
		if hasRoute {
			out["route"] = route
		}
		return printJSON(w, out)
	}
	fmt.Fprintf(w, "%s\n%s\n", n.Title, n.Message)
	if hasRoute {
		fmt.Fprintf(w, "\nRelated: %s", route)
		if c := commandFor(route, d.session.Snapshot().Role()); c != "" {
			fmt.Fprintf(w, "  (%s)", c)
		}
		fmt.Fprintln(w)
	}
	return 0
}

// runNotificationsWatch prints one line per count change until ctx ends.
func runNotificationsWatch(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w); code != 0 {
		return code
	}

	syncer := newSynchronizer(d)
	syncer.Mount(ctx)
	defer syncer.Unmount()

	var (
		printed bool
		last    int
	)
	for {
		select {
		case <-ctx.Done():
			return 0
		case snap := <-syncer.Updates():
			if !d.session.Snapshot().Authenticated {
				fmt.Fprintln(w, "Session ended.")
				return 2
			}
			if !snap.Mounted || !snap.Counted || (printed && snap.Unread == last) {
				continue
			}
			printed, last = true, snap.Unread
			printCount(w, last)
		}
	}
}

func printCount(w io.Writer, n int) {
	now := time.Now()
	if IsJSONOutput() {
		printJSON(w, map[string]any{"time": now.UTC().Format(time.RFC3339), "unread_count": n})
		return
	}
	fmt.Fprintf(w, "%s  %d unread\n", now.Format(time.TimeOnly), n)
}
