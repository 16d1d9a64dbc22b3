package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/claude/replog/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	password   string
	regName    string
	rememberMe bool
)

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword()
		if err != nil {
			return err
		}
		u, err := cli.api.Register(cmd.Context(), models.RegisterInput{Email: args[0], Password: pw, Name: regName})
		if err != nil {
			return fmt.Errorf("registering: %w", err)
		}
		color.Green("✓ Registered %s", u.Email)
		fmt.Println("  Log in with: replog-session login", u.Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword()
		if err != nil {
			return err
		}
		res, err := cli.api.Login(cmd.Context(), models.LoginInput{Email: args[0], Password: pw, RememberMe: rememberMe})
		if err != nil {
			return fmt.Errorf("logging in: %w", err)
		}
		if err := saveToken(cli.stateDir, res.Token); err != nil {
			return err
		}
		color.Green("✓ Logged in as %s", res.User.DisplayName())
		fmt.Printf("  Session expires %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clearToken(cli.stateDir); err != nil {
			return err
		}
		color.Green("✓ Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := cli.api.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", u.DisplayName(), u.Email)
		return nil
	},
}

// readPassword takes --password, then REPLOG_PASSWORD, then prompts.
func readPassword() (string, error) {
	if password != "" {
		return password, nil
	}
	if pw := os.Getenv("REPLOG_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&regName, "name", "", "display name")
	loginCmd.Flags().BoolVar(&rememberMe, "remember", false, "keep the session for 30 days instead of 24 hours")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}
