package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"trackswift/internal/apiclient"
	"trackswift/internal/ledger"
	"trackswift/internal/models"
)

// table writes tab-separated rows aligned into columns.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() {
	_ = t.w.Flush()
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}

// monthStart is the first day of t's month at midnight.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func amt(d decimal.Decimal) string {
	return ledger.Format(d)
}

func money(currency string, d decimal.Decimal) string {
	return ledger.FormatCurrency(currency, d)
}

func pageFooter(out io.Writer, p models.Pagination) {
	fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", p.Page, max(p.Pages, 1), p.Total)
}

// --- FLAG HELPERS ---

// parseDay reads a YYYY-MM-DD flag in local time.
func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

func dayFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil
	}
	t, err := parseDay(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("limit", 10, "Rows per page")
	cmd.Flags().String("search", "", "Search text")
}

// listParams reads the common list flags plus whichever of the optional
// filters the command declares.
func listParams(cmd *cobra.Command) (apiclient.ListParams, error) {
	var p apiclient.ListParams
	f := cmd.Flags()
	p.Page, _ = f.GetInt("page")
	p.Limit, _ = f.GetInt("limit")
	p.Search, _ = f.GetString("search")
	if f.Lookup("category") != nil {
		p.Category, _ = f.GetString("category")
	}
	if f.Lookup("vendor") != nil {
		p.Vendor, _ = f.GetString("vendor")
	}
	if f.Lookup("status") != nil {
		p.Status, _ = f.GetString("status")
	}
	if f.Lookup("low-stock") != nil {
		p.LowStock, _ = f.GetBool("low-stock")
	}
	if f.Lookup("from") != nil {
		from, err := dayFlag(cmd, "from")
		if err != nil {
			return p, err
		}
		p.StartDate = from
		to, err := dayFlag(cmd, "to")
		if err != nil {
			return p, err
		}
		if to != nil {
			end := to.Add(24*time.Hour - time.Millisecond)
			p.EndDate = &end
		}
	}
	return p, nil
}

// overlay copies a string flag onto dst when the user set it.
func overlay(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func overlayInt(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func overlayDate(cmd *cobra.Command, name string, dst *time.Time) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	t, err := dayFlag(cmd, name)
	if err != nil {
		return err
	}
	if t != nil {
		*dst = *t
	}
	return nil
}
