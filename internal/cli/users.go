package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackswift/internal/models"
	"trackswift/internal/views"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer the company's user accounts (admins only)",
	}
	cmd.AddCommand(
		newUsersListCmd(app),
		newUsersAddCmd(app),
		newUsersEditCmd(app),
		newUsersDeleteCmd(app),
		newUsersInviteCmd(app),
	)
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			users, err := views.NewUsers(app.env).List(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "ID", "USERNAME", "EMAIL", "ROLE", "ACTIVE")
			for _, u := range users {
				active := "no"
				if u.IsActive {
					active = "yes"
				}
				t.row(u.ID, u.Username, u.Email, u.Role, active)
			}
			t.flush()
			return nil
		},
	}
}

func userFlags(cmd *cobra.Command) {
	cmd.Flags().String("username", "", "Username")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "Password (at least 6 characters)")
	cmd.Flags().String("role", "", "admin or user")
	cmd.Flags().Bool("active", true, "Whether the account can sign in")
}

func applyUserFlags(cmd *cobra.Command, f *views.UserForm) {
	overlay(cmd, "username", &f.Username)
	overlay(cmd, "email", &f.Email)
	overlay(cmd, "password", &f.Password)
	overlay(cmd, "role", &f.Role)
	if cmd.Flags().Changed("active") {
		f.IsActive, _ = cmd.Flags().GetBool("active")
	}
}

// findUser looks the target up in the user list; the server has no
// single-user read.
func findUser(cmd *cobra.Command, view *views.Users, id string) (*models.User, error) {
	users, err := view.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %s not found", id)
}

func newUsersAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a user",
		Example: `  trackswift users add --username amal --email amal@acme.om --password s3cret --role user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			form := views.UserForm{Role: models.RoleUser, IsActive: true}
			applyUserFlags(cmd, &form)
			u, err := views.NewUsers(app.env).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}
	userFlags(cmd)
	return cmd
}

func newUsersEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a user; a password is only sent when given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewUsers(app.env)
			current, err := findUser(cmd, view, args[0])
			if err != nil {
				return err
			}
			form := views.UserFormFrom(*current)
			applyUserFlags(cmd, &form)
			_, err = view.Update(cmd.Context(), args[0], form)
			return err
		},
	}
	userFlags(cmd)
	return cmd
}

func newUsersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a user; administrators cannot be deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			view := views.NewUsers(app.env)
			target, err := findUser(cmd, view, args[0])
			if err != nil {
				return err
			}
			return view.Delete(cmd.Context(), *target)
		},
	}
}

func newUsersInviteCmd(app *App) *cobra.Command {
	var in models.InviteRequest
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite a user and print their temporary password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLogin(); err != nil {
				return err
			}
			resp, err := views.NewUsers(app.env).Invite(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Temporary password for %s: %s\n", resp.User.Email, resp.TemporaryPassword)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "Username")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Role, "role", models.RoleUser, "admin or user")
	return cmd
}
