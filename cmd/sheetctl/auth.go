package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sheetctl/api"
	"sheetctl/internal/editor"
	"sheetctl/session"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the session with the sheet server",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session cookie",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var (
	authLoginEmail    string
	authLoginPassword string
)

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and drop the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authStatusJSON bool

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runAuthRegister,
}

var (
	authRegisterUsername string
	authRegisterEmail    string
	authRegisterPassword string
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd, authRegisterCmd)

	// auth login flags
	authLoginCmd.Flags().StringVar(&authLoginEmail, "email", "", "Account email (prompted when omitted)")
	authLoginCmd.Flags().StringVar(&authLoginPassword, "password", "", "Account password (prompted when omitted)")

	// auth status flags
	authStatusCmd.Flags().BoolVar(&authStatusJSON, "json", false, "Output as JSON")

	// auth register flags
	authRegisterCmd.Flags().StringVar(&authRegisterUsername, "username", "", "Account username (prompted when omitted)")
	authRegisterCmd.Flags().StringVar(&authRegisterEmail, "email", "", "Account email (prompted when omitted)")
	authRegisterCmd.Flags().StringVar(&authRegisterPassword, "password", "", "Account password (prompted when omitted)")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	email := authLoginEmail
	password := authLoginPassword
	if email == "" || password == "" {
		if !editor.IsInteractive() {
			return fmt.Errorf("stdin is not a terminal, pass --email and --password")
		}
		line := newPrompter()
		defer line.Close()
		if err := promptValue(line, "Email: ", &email); err != nil {
			return err
		}
		if err := promptSecret(line, "Password: ", &password); err != nil {
			return err
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sessions.Login(cmd.Context(), email, password); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", a.sessions.Username())
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	logoutErr := a.sessions.Logout(cmd.Context())
	// The cookies go regardless: a rejected logout means the session was
	// already dead on the server.
	a.jar.Clear()
	if logoutErr != nil && !api.IsAuthError(logoutErr) {
		return logoutErr
	}
	fmt.Println("Signed out")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sessions.Refresh(cmd.Context()); err != nil {
		return err
	}
	status := a.sessions.Current()

	if authStatusJSON {
		return encodeJSONToStdout(status)
	}
	if status.Authenticated && status.User != nil {
		fmt.Printf("Signed in as %s (%s)\n", status.User.Username, status.User.Email)
		return nil
	}
	fmt.Println("Not signed in")
	return nil
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	username := authRegisterUsername
	email := authRegisterEmail
	password := authRegisterPassword
	if username == "" || email == "" || password == "" {
		if !editor.IsInteractive() {
			return fmt.Errorf("stdin is not a terminal, pass --username, --email, and --password")
		}
		line := newPrompter()
		defer line.Close()
		if err := promptValue(line, "Username: ", &username); err != nil {
			return err
		}
		if err := promptValue(line, "Email: ", &email); err != nil {
			return err
		}
		confirmNeeded := password == ""
		if err := promptSecret(line, "Password: ", &password); err != nil {
			return err
		}
		if confirmNeeded {
			var confirm string
			if err := promptSecret(line, "Confirm password: ", &confirm); err != nil {
				return err
			}
			if confirm != password {
				return fmt.Errorf("passwords do not match")
			}
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	input := session.RegisterInput{Username: username, Email: email, Password: password}
	if err := a.sessions.Register(cmd.Context(), input); err != nil {
		return err
	}
	fmt.Printf("Registered and signed in as %s\n", a.sessions.Username())
	return nil
}
