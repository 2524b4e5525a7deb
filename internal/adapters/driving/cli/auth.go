package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/o365-cli/internal/adapters/driving/tui/login"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in and manage the cached token",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with the device-code flow",
	Long: `Sign in to Office 365. A code is shown; open the verification page in any
browser, enter the code and approve the requested permissions. Tokens are
saved to the token file (mode 0600) and refreshed automatically.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token now",
	Args:  cobra.NoArgs,
	RunE:  runAuthRefresh,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in account and token lifetime",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

func init() {
	authCmd.AddCommand(authLoginCmd, authRefreshCmd, authStatusCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var (
		status *domain.AuthStatus
		err    error
	)
	if isTerminal(out) {
		status, err = login.Run(ctx, cmd.InOrStdin(), out, authService.Login)
	} else {
		status, err = authService.Login(ctx, func(code domain.DeviceCode) {
			msg := code.Message
			if msg == "" {
				msg = fmt.Sprintf("To sign in, open %s and enter the code %s", code.VerificationURI, code.UserCode)
			}
			fmt.Fprintln(out, msg)
			fmt.Fprintln(out, "Waiting for authentication...")
		})
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, styles.ok.Render("✓")+" Authenticated")
	printStatus(out, status)
	return nil
}

func runAuthRefresh(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	status, err := authService.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.ok.Render("✓")+" Token refreshed")
	printStatus(cmd.OutOrStdout(), status)
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	status, err := authService.Status(cmd.Context())
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), status)
	if !status.Authenticated {
		return fmt.Errorf("%w: not signed in", domain.ErrAuthRequired)
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	if err := authService.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out; cached token removed.")
	return nil
}

func printStatus(w io.Writer, s *domain.AuthStatus) {
	if s == nil {
		return
	}
	state := styles.err.Render("not authenticated")
	if s.Authenticated {
		state = styles.ok.Render("authenticated")
	}
	fmt.Fprintf(w, "Status:        %s\n", state)
	if s.Account != "" {
		account := s.Account
		if s.Name != "" {
			account = s.Name + " <" + s.Account + ">"
		}
		fmt.Fprintf(w, "Account:       %s\n", account)
	}
	if !s.ExpiresAt.IsZero() {
		left := "expired"
		if s.Remaining > 0 {
			left = s.Remaining.Round(time.Second).String() + " left"
		}
		fmt.Fprintf(w, "Token expires: %s (%s)\n", formatDateTime(s.ExpiresAt), left)
	}
	refresh := "no"
	if s.HasRefreshToken {
		refresh = "yes"
	}
	fmt.Fprintf(w, "Refresh token: %s\n", refresh)
	if len(s.Scopes) > 0 {
		fmt.Fprintf(w, "Scopes:        %s\n", strings.Join(s.Scopes, " "))
	}
	fmt.Fprintf(w, "Token file:    %s\n", s.TokenFile)
}
