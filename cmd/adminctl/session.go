package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

// readPassword reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = readLine("Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			s, err := c.app.Sessions.Authenticate(cmd.Context(), email, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", s.User.Name, s.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Revalidate the stored token and show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := c.app.Sessions.Initialize(cmd.Context())
			out := cmd.OutOrStdout()
			if !s.Authenticated() {
				fmt.Fprintf(out, "Not signed in")
				if s.Demoted != domain.DemotionNone {
					fmt.Fprintf(out, " (stored session %s)", s.Demoted)
				}
				fmt.Fprintln(out)
				return nil
			}
			role := "editor"
			if s.User.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(out, "%s <%s> %s\n", s.User.Name, s.User.Email, role)
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var name, email string
	var changePassword bool
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in user's name, email or password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(cmd.Context()); err != nil {
				return err
			}
			current, _ := c.app.Sessions.CurrentUser()
			update := domain.ProfileUpdate{Name: current.Name, Email: current.Email}
			if name != "" {
				update.Name = name
			}
			if email != "" {
				update.Email = email
			}
			if changePassword {
				pw, err := readPassword("New password: ")
				if err != nil {
					return err
				}
				again, err := readPassword("Repeat new password: ")
				if err != nil {
					return err
				}
				if pw != again {
					return fmt.Errorf("passwords do not match")
				}
				update.Password = pw
			}

			u, err := c.app.Sessions.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().BoolVar(&changePassword, "password", false, "prompt for a new password")
	return cmd
}
