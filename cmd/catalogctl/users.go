package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

func newCreateUserCmd(a *app) *cobra.Command {
	var form service.UserForm

	cmd := &cobra.Command{
		Use:   "create-user USERNAME",
		Short: "Create a librarian or member account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.auth()
			if err != nil {
				return err
			}
			form.Username = args[0]
			if form.Password, err = readPassword(cmd, "Password: "); err != nil {
				return err
			}

			u, err := svc.CreateUser(cmd.Context(), form)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Role, "role", string(domain.RoleMember), "librarian or member")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	return cmd
}

func newSetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password USERNAME",
		Short: "Replace an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.auth()
			if err != nil {
				return err
			}
			password, err := readPassword(cmd, "New password: ")
			if err != nil {
				return err
			}
			if err := svc.SetPassword(cmd.Context(), args[0], password); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password changed for %s\n", args[0])
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise, so passwords can be piped in from scripts.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// describe flattens field errors into one line for the terminal.
func describe(err error) error {
	fields := domainerrors.FieldsOf(err)
	if len(fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(fields))
	for name, msg := range fields {
		if name == "" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, name+": "+msg)
	}
	return errors.New(strings.Join(parts, "; "))
}
