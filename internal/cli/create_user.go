package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/entities"
	"github.com/mrlokans/booktrack/internal/entrypoint"
)

// CreateUserOptions are the flags of create-user.
type CreateUserOptions struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Password  string
}

func newCreateUserCommand(load ConfigLoader) *cobra.Command {
	var opts CreateUserOptions

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account with any role",
		Long: `Create an account directly in the database, e.g. the first library_admin.

The password is read from the terminal unless --password is given.`,
		Example: `  booktrack create-user --email admin@example.com --first-name Ada --last-name Lovelace --role library_admin`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Password == "" {
				password, err := promptPassword(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				opts.Password = password
			}

			app, err := entrypoint.NewApplication(load())
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Auth.CreateUser(cmd.Context(), auth.Registration{
				FirstName:       opts.FirstName,
				LastName:        opts.LastName,
				Email:           opts.Email,
				Password:        opts.Password,
				ConfirmPassword: opts.Password,
			}, entities.UserRole(opts.Role))
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Email, "email", "", "Email address (required)")
	flags.StringVar(&opts.FirstName, "first-name", "", "First name (required)")
	flags.StringVar(&opts.LastName, "last-name", "", "Last name (required)")
	flags.StringVar(&opts.Role, "role", string(entities.RoleUser), "Role: user, admin, library_admin or library_moderator")
	flags.StringVar(&opts.Password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

// promptPassword reads the password twice. On a terminal input is masked;
// otherwise two lines are read from in.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	read := lineReader(in)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		read = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
	}

	fmt.Fprint(out, "Password: ")
	password, err := read()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprint(out, "Confirm password: ")
	confirm, err := read()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func lineReader(in io.Reader) func() (string, error) {
	scanner := bufio.NewScanner(in)
	return func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
}
