// ABOUTME: Authentication commands: login, register, logout, whoami, token refresh
// ABOUTME: Drive the session manager and report the resulting session state

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/session"
)

var (
	loginEmail    string
	loginPassword string

	registerRole   string
	registerFields map[string]string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in and store the session for later commands.

Missing credentials are prompted for when running in a terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := promptCredentials(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		execute(runLogin)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an intern or company account",
	Long: `Create an account and log in with it.

Fields are passed as key=value pairs. Intern fields: email, password,
password2, nom, prenom, telephone, adresse, ville, niveau_etude, domaine.
Company fields: email, password, password2, nom_entreprise, secteur_activite,
telephone, adresse, ville, contact_nom, contact_prenom.

Example:
  placement register --role intern --field email=lina@example.com \
    --field password=secret123 --field nom=Benali --field prenom=Lina`,
	Run: command(runRegister),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and forget it locally",
	Run:   command(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Run:   command(runWhoami),
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the access token",
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new access token",
	Run:   command(runTokenRefresh),
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, tokenCmd)
	tokenCmd.AddCommand(tokenRefreshCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")

	registerCmd.Flags().StringVar(&registerRole, "role", "", "Account type: intern (STAGIAIRE) or company (ENTREPRISE)")
	registerCmd.Flags().StringToStringVar(&registerFields, "field", nil, "Registration field as key=value (repeatable)")
	_ = registerCmd.MarkFlagRequired("role")
}

// promptCredentials asks for missing login fields when stdin is a terminal.
func promptCredentials() error {
	if (loginEmail != "" && loginPassword != "") || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&loginEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&loginPassword),
		),
	).WithTheme(huh.ThemeBase())
	return form.Run()
}

type loginOutput struct {
	Success bool                `json:"success"`
	User    *model.UserEnvelope `json:"user,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func printResult(w io.Writer, res session.Result, verb string) int {
	if IsJSONOutput() {
		out := loginOutput{Success: res.Success, Error: res.Error}
		if res.User != nil {
			out.User = &model.UserEnvelope{User: res.User}
		}
		if code := printJSON(w, out); code != 0 {
			return code
		}
	} else if res.Success {
		fmt.Fprintf(w, "%s as %s (%s)\n", verb, res.User.DisplayName(), res.User.Role().Label())
	} else {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
	}

	if !res.Success {
		return 1
	}
	return 0
}

// runLogin authenticates and persists the session.
func runLogin(ctx context.Context, d *deps, w io.Writer) int {
	if loginEmail == "" || loginPassword == "" {
		fmt.Fprintln(w, "Error: --email and --password are required")
		return 2
	}
	res := d.session.Login(ctx, loginEmail, loginPassword)
	return printResult(w, res, "Logged in")
}

// parseRegisterRole accepts the wire names and their English aliases.
func parseRegisterRole(s string) (model.Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intern", "stagiaire":
		return model.RoleIntern, nil
	case "company", "entreprise":
		return model.RoleCompany, nil
	}
	return model.ParseRole(s)
}

// runRegister creates the account and logs it in.
func runRegister(ctx context.Context, d *deps, w io.Writer) int {
	role, err := parseRegisterRole(registerRole)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fields := make(map[string]string, len(registerFields)+1)
	for k, v := range registerFields {
		fields[k] = v
	}
	if fields["password2"] == "" && fields["password_confirm"] == "" {
		fields["password2"] = fields["password"]
	}

	res := d.session.Register(ctx, session.RegistrationForm{Role: role, Fields: fields})
	return printResult(w, res, "Registered and logged in")
}

// runLogout revokes the refresh token and clears the stored session.
func runLogout(ctx context.Context, d *deps, w io.Writer) int {
	wasLoggedIn := d.session.Restore(ctx)
	d.session.Logout(ctx)

	if IsJSONOutput() {
		return printJSON(w, map[string]bool{"logged_out": wasLoggedIn})
	}
	if wasLoggedIn {
		fmt.Fprintln(w, "Logged out")
	} else {
		fmt.Fprintln(w, "Not logged in")
	}
	return 0
}

// runWhoami prints the revalidated user.
func runWhoami(ctx context.Context, d *deps, w io.Writer) int {
	if code := d.require(ctx, w); code != 0 {
		return code
	}
	u := d.session.Snapshot().User

	if IsJSONOutput() {
		return printJSON(w, model.UserEnvelope{User: u})
	}
	fmt.Fprintln(w, formatUser(u))
	return 0
}

func formatUser(u model.User) string {
	base := u.Base()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:    %s\n", u.DisplayName())
	fmt.Fprintf(&sb, "Email:   %s\n", base.Email)
	fmt.Fprintf(&sb, "Role:    %s\n", u.Role().Label())
	fmt.Fprintf(&sb, "Active:  %t", base.IsActive)

	switch v := u.(type) {
	case model.InternUser:
		if v.Profile.Domain != "" {
			fmt.Fprintf(&sb, "\nDomain:  %s", v.Profile.Domain)
		}
		if v.Profile.City != "" {
			fmt.Fprintf(&sb, "\nCity:    %s", v.Profile.City)
		}
		fmt.Fprintf(&sb, "\nCV:      %t", v.Profile.HasCV())
	case model.CompanyUser:
		if v.Profile.Sector != "" {
			fmt.Fprintf(&sb, "\nSector:  %s", v.Profile.Sector)
		}
		if v.Profile.City != "" {
			fmt.Fprintf(&sb, "\nCity:    %s", v.Profile.City)
		}
	}
	return sb.String()
}

// runTokenRefresh exchanges the refresh token without revalidating first.
func runTokenRefresh(ctx context.Context, d *deps, w io.Writer) int {
	if !d.session.Restore(ctx) {
		fmt.Fprintln(w, "Error: not logged in. Run 'placement login' first.")
		return 2
	}
	if err := d.session.RefreshAccess(ctx); err != nil {
		return failure(w, err)
	}

	exp, ok := d.session.Credentials().AccessExpiry()
	if IsJSONOutput() {
		out := map[string]any{"refreshed": true}
		if ok {
			out["expires_at"] = exp.UTC().Format(time.RFC3339)
		}
		return printJSON(w, out)
	}
	if ok {
		fmt.Fprintf(w, "Access token refreshed, expires %s\n", exp.Local().Format(time.RFC1123))
	} else {
		fmt.Fprintln(w, "Access token refreshed")
	}
	return 0
}
