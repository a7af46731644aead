package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trackswift/internal/apiclient"
	"trackswift/internal/views"
)

var version = "1.0.0"

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "trackswift",
		Short: "TrackSwift - business bookkeeping from the command line",
		Long: `TrackSwift keeps the books of a small business: vendors and their invoices,
inventory, daily sales and expenses, and the reports built from them.

Every command talks to a TrackSwift server. Sign in once with "trackswift login";
the session is kept until you log out or the server rejects it.

Environment variables:
  TRACKSWIFT_API_URL         - Server API base (default: http://localhost:5000/api)
  TRACKSWIFT_SESSION_BACKEND - file, redis or memory (default: file)
  TRACKSWIFT_DOWNLOAD_DIR    - Where reports are saved (default: .)`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&app.assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")

	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newDashboardCmd(app),
		newVendorsCmd(app),
		newInvoicesCmd(app),
		newInventoryCmd(app),
		newSalesCmd(app),
		newExpensesCmd(app),
		newUsersCmd(app),
		newReportsCmd(app),
		newAskCmd(app),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	defer app.Close()

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.out)
	root.SetErr(app.out)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	app.report(err)
	return 1
}

// report prints err unless a view already showed it.
func (a *App) report(err error) {
	a.log.Debug().Err(err).Msg("command failed")

	var fe *views.FormError
	switch {
	case errors.As(err, &fe):
		for _, f := range fe.Fields {
			a.Error(f.Message)
		}
	case errors.Is(err, views.ErrCancelled):
		fmt.Fprintln(a.out, "Cancelled.")
	case errors.Is(err, apiclient.ErrUnauthorized):
		fmt.Fprintln(a.out, "Your session has ended. Run `trackswift login` to sign in again.")
	default:
		a.mu.Lock()
		shown := a.toasted
		a.mu.Unlock()
		if !shown {
			a.Error(err.Error())
		}
	}
}
