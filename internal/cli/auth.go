package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trackswift/internal/views"
)

func newLoginCmd(app *App) *cobra.Command {
	var form views.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your company account",
		Example: `  trackswift login --company "Acme Trading" --email owner@acme.om --password s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := views.Login(cmd.Context(), app.env, form)
			if err != nil {
				if msg := app.env.Session.Err(); msg != "" {
					app.Error(msg)
					app.env.Session.ClearError()
				}
				return err
			}
			app.Success(fmt.Sprintf("Signed in as %s (%s) at %s", user.Email, user.Role, user.CompanyName))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var form views.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a company account and its first administrator",
		Example: `  trackswift register --company "Acme Trading" --first-name Amal --email owner@acme.om \
    --password s3cret --confirm-password s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := views.Register(cmd.Context(), app.env, form)
			if err != nil {
				if msg := app.env.Session.Err(); msg != "" {
					app.Error(msg)
					app.env.Session.ClearError()
				}
				return err
			}
			app.Success(fmt.Sprintf("Company %s registered, signed in as %s", user.CompanyName, user.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password again")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := views.Logout(cmd.Context(), app.env); err != nil {
				return err
			}
			app.Success("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user after checking the token with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			user, err := views.Verify(cmd.Context(), app.env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			name := strings.TrimSpace(user.FirstName + " " + user.LastName)
			if name == "" {
				name = user.Username
			}
			fmt.Fprintf(out, "User:    %s <%s>\n", name, user.Email)
			fmt.Fprintf(out, "Role:    %s\n", user.Role)
			fmt.Fprintf(out, "Company: %s\n", app.env.Session.CompanyName())
			fmt.Fprintf(out, "Tenant:  %s\n", app.env.Session.TenantID())
			if tenant, err := app.env.API.TenantInfo(cmd.Context()); err == nil && tenant.Currency != "" {
				fmt.Fprintf(out, "Currency: %s\n", tenant.Currency)
			}
			return nil
		},
	}
}

func newAskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the bookkeeping assistant (admins only)",
		Example: `  trackswift ask "Which items are running low?"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			reply, err := app.env.API.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				app.env.Fail(err, "Assistant failed to answer")
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}
