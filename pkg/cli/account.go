package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasks/pkg/auth"
)

func newSignUpCmd(opts *rootOptions) *cobra.Command {
	var form auth.SignUpForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long:  `Creates an account on the task service. Missing fields are asked for interactively.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields []huh.Field
			if form.Name == "" {
				fields = append(fields, huh.NewInput().Title("Name").Value(&form.Name).Validate(auth.ValidateName))
			}
			if form.Email == "" {
				fields = append(fields, huh.NewInput().Title("Email").Value(&form.Email).Validate(auth.ValidateEmail))
			}
			if form.Password == "" {
				fields = append(fields, passwordInput("Password", &form.Password).Validate(auth.ValidatePassword))
			}
			if form.ConfirmPassword == "" {
				fields = append(fields, passwordInput("Confirm password", &form.ConfirmPassword))
			}
			if err := prompt(fields...); err != nil {
				return err
			}

			return withApp(opts, func(a *app) error {
				if err := a.auth.SignUp(cmd.Context(), form); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Sign in with: tasks signin\n", form.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password confirmation")
	return cmd
}

func newSignInCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields []huh.Field
			if email == "" {
				fields = append(fields, huh.NewInput().Title("Email").Value(&email).Validate(auth.ValidateEmail))
			}
			if password == "" {
				fields = append(fields, passwordInput("Password", &password).Validate(auth.ValidatePassword))
			}
			if err := prompt(fields...); err != nil {
				return err
			}

			return withApp(opts, func(a *app) error {
				_, sess, err := a.auth.SignIn(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", sess.Name, sess.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newSignOutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if err := a.auth.SignOut(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func passwordInput(title string, value *string) *huh.Input {
	return huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(value)
}

// prompt asks for the given fields, if any, in a single form.
func prompt(fields ...huh.Field) error {
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}
