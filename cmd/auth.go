package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/frahmantamala/expense-client/internal/router"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	authName            string
	authEmail           string
	authPassword        string
	authConfirmPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an employee account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&authPassword, "password", "p", "", "password; prompted when omitted")

	registerCmd.Flags().StringVarP(&authName, "name", "n", "", "display name")
	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&authPassword, "password", "p", "", "password; prompted when omitted")
	registerCmd.Flags().StringVar(&authConfirmPassword, "confirm-password", "", "password again; prompted when omitted")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	deps, err := initializeDependencies(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	in := bufio.NewReader(cmd.InOrStdin())
	email, err := promptValue(cmd, in, "Email", authEmail, false)
	if err != nil {
		return err
	}
	password, err := promptValue(cmd, in, "Password", authPassword, true)
	if err != nil {
		return err
	}

	s, err := deps.Session.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", s.User.Name, s.User.Role)
	printResolution(cmd.OutOrStdout(), deps.Navigator.Navigate(router.Home(deps.principal().State())))
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	deps, err := initializeDependencies(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	in := bufio.NewReader(cmd.InOrStdin())
	name, err := promptValue(cmd, in, "Name", authName, false)
	if err != nil {
		return err
	}
	email, err := promptValue(cmd, in, "Email", authEmail, false)
	if err != nil {
		return err
	}
	password, err := promptValue(cmd, in, "Password", authPassword, true)
	if err != nil {
		return err
	}
	confirm, err := promptValue(cmd, in, "Confirm password", authConfirmPassword, true)
	if err != nil {
		return err
	}

	s, err := deps.Session.Register(cmd.Context(), name, email, password, confirm)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s (%s)\n", s.User.Name, s.User.Role)
	printResolution(cmd.OutOrStdout(), deps.Navigator.Navigate(router.Home(deps.principal().State())))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	deps, err := initializeDependencies(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.Session.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	printResolution(cmd.OutOrStdout(), deps.Navigator.Current())
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	deps, err := initializeDependencies(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	s := deps.Session.Current()
	if !s.Authenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
		return nil
	}
	printSession(cmd.OutOrStdout(), s, router.Home(deps.principal().State()))
	return nil
}

// promptValue returns flagValue when set, otherwise reads a line from the
// terminal. Secrets are read without echo when stdin is a terminal.
func promptValue(cmd *cobra.Command, in *bufio.Reader, label, flagValue string, secret bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)

	if secret && cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
