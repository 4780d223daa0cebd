package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your account and login session",
	Long: `Register an account, log in and out, and inspect the current session.

A logged-in session saves generated notes to your account, remembers
your preferred generation settings and attributes usage to you. Without
a session all commands run as guest.

Examples:
  noteforge auth register alice
  noteforge auth login alice
  noteforge auth whoami
  noteforge auth logout`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRegister,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and cache the session token",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate and forget the cached session",
	RunE:  runAuthLogout,
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current account",
	RunE:  runAuthWhoami,
}

// Flags for auth register.
var authRegisterEmail string

func init() {
	authRegisterCmd.Flags().StringVar(
		&authRegisterEmail, "email", "", "Email address (optional)")

	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	username := args[0]
	ctx := context.Background()

	cmd.Print("Password: ")
	password := readPassword()
	cmd.Println()
	if password == "" {
		return errors.New("password is required")
	}

	cmd.Print("Confirm password: ")
	confirm := readPassword()
	cmd.Println()
	if password != confirm {
		return errors.New("passwords do not match")
	}

	user, err := authService.Register(ctx, username, authRegisterEmail, password)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("username %q is taken", username)
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	cmd.Printf("Account created: %s\n", user.Username)
	cmd.Println("Log in with: noteforge auth login " + user.Username)
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	username := args[0]
	ctx := context.Background()

	cmd.Print("Password: ")
	password := readPassword()
	cmd.Println()

	token, err := authService.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthInvalid) {
			return errors.New("invalid username or password")
		}
		if errors.Is(err, domain.ErrUserDisabled) {
			return errors.New("this account is disabled")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if err := configStore.Set("auth.token", token); err != nil {
		return fmt.Errorf("could not cache session token: %w", err)
	}

	cmd.Printf("Logged in as %s\n", username)
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if authService == nil || configStore == nil {
		return errors.New("auth service not configured")
	}

	token := configStore.GetString("auth.token")
	if token == "" {
		cmd.Println("Not logged in.")
		return nil
	}

	// Invalidate server-side first; forgetting the token locally still
	// happens even if the session row is already gone.
	if err := authService.Logout(context.Background(), token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		cmd.PrintErrf("Warning: session invalidation failed: %v\n", err)
	}

	if err := configStore.Set("auth.token", ""); err != nil {
		return fmt.Errorf("could not clear session token: %w", err)
	}

	cmd.Println("Logged out.")
	return nil
}

func runAuthWhoami(cmd *cobra.Command, _ []string) error {
	user := currentUser(context.Background())
	if user == nil {
		cmd.Println("Not logged in (guest).")
		return nil
	}

	cmd.Printf("Username: %s\n", user.Username)
	if user.Email != "" {
		cmd.Printf("Email: %s\n", user.Email)
	}
	cmd.Printf("Role: %s\n", user.Role)
	if user.LastLogin != nil {
		cmd.Printf("Last login: %s\n", user.LastLogin.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// readPassword reads a password without echo when stdin is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
