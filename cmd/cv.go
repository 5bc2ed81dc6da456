// ABOUTME: CV commands: show, upload, delete, view
// ABOUTME: Interns manage their PDF CV; administrators can download any intern's CV

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/recentfiles"
)

var (
	cvArgs   []string
	cvIntern int
	cvOut    string
)

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "Manage your CV",
}

var cvShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether a CV is on file",
	Run:   command(runCVShow),
}

var cvUploadCmd = &cobra.Command{
	Use:   "upload FILE.pdf",
	Short: "Upload or replace your CV (PDF, 10 MB max)",
	Args:  cobra.ExactArgs(1),
	Run:   withArgs(&cvArgs, runCVUpload),
}

var cvDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove your CV",
	Run:   command(runCVDelete),
}

var cvViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Download a CV",
	Long: `Download your CV, or with --intern an intern's CV (administrators).
Use --out - to write the PDF to stdout.`,
	Run: command(runCVView),
}

func init() {
	rootCmd.AddCommand(cvCmd)
	cvCmd.AddCommand(cvShowCmd, cvUploadCmd, cvDeleteCmd, cvViewCmd)

	cvViewCmd.Flags().IntVar(&cvIntern, "intern", 0, "Intern profile id (administrators only)")
	cvViewCmd.Flags().StringVarP(&cvOut, "out", "o", "", "Output file (default: cv-<id>.pdf)")
}

func internUser(d *deps) model.InternUser {
	u, _ := d.session.Snapshot().User.(model.InternUser)
	return u
}

func printCV(w io.Writer, p model.InternProfile) int {
	if IsJSONOutput() {
		return printJSON(w, map[string]any{"has_cv": p.HasCV(), "cv_file": p.CVFile, "cv_file_url": p.CVFileURL})
	}
	if !p.HasCV() {
		fmt.Fprintln(w, "No CV on file. Upload one with 'placement cv upload FILE.pdf'.")
		return 0
	}
	fmt.Fprintf(w, "CV: %s\n", filepath.Base(p.CVFile))
	if p.CVFileURL != "" {
		fmt.Fprintf(w, "URL: %s\n", p.CVFileURL)
	}
	return 0
}

func runCVShow(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleIntern); code != 0 {
		return code
	}
	return printCV(w, internUser(d).Profile)
}

// storeProfile replaces the cached intern profile after a CV change.
func storeProfile(ctx context.Context, d *deps, p *model.InternProfile) {
	u := internUser(d)
	u.Profile = *p
	if err := d.session.UpdateUser(ctx, u); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not update cached profile: %v\n", err)
	}
}

func runCVUpload(ctx context.Context, d *deps, w io.Writer) int {
	path := cvArgs[0]
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := client.CheckCV(filepath.Base(path), info.Size()); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	if code := d.require(ctx, w, model.RoleIntern); code != 0 {
		return code
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer f.Close()

	profile, err := d.api.UploadCV(ctx, filepath.Base(path), f, info.Size())
	if err != nil {
		return failure(w, err)
	}
	storeProfile(ctx, d, profile)
	if err := recentfiles.New(d.cfg.ConfigDir).Add(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record recent file: %v\n", err)
	}

	if IsJSONOutput() {
		return printCV(w, *profile)
	}
	fmt.Fprintf(w, "Uploaded %s\n", filepath.Base(path))
	return 0
}

func runCVDelete(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w, model.RoleIntern); code != 0 {
		return code
	}
	profile, err := d.api.DeleteCV(ctx)
	if err != nil {
		return failure(w, err)
	}
	storeProfile(ctx, d, profile)

	if IsJSONOutput() {
		return printCV(w, *profile)
	}
	fmt.Fprintln(w, "CV removed")
	return 0
}

func runCVView(ctx context.Context, d *deps, w io.Writer) int {
	roles := []model.Role{model.RoleIntern}
	if cvIntern > 0 {
		roles = []model.Role{model.RoleAdmin}
	}
	if code := d.require(ctx, w, roles...); code != 0 {
		return code
	}

	data, err := d.api.ViewCV(ctx, cvIntern)
	if err != nil {
		return failure(w, err)
	}

	out := cvOut
	if out == "-" {
		_, err := w.Write(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		return 0
	}
	if out == "" {
		id := cvIntern
		if id == 0 {
			id = internUser(d).Profile.ID
		}
		out = fmt.Sprintf("cv-%d.pdf", id)
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]any{"file": out, "bytes": len(data)})
	}
	fmt.Fprintf(w, "Saved %s (%d bytes)\n", out, len(data))
	return 0
}
