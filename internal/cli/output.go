package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/pkg/pagination"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-aligned rows under an upper-cased header.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, header ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	for i := range header {
		header[i] = strings.ToUpper(header[i])
	}
	t.row(anySlice(header)...)
	return t
}

func (t *table) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.tw, strings.Join(parts, "\t"))
}

func (t *table) flush() error { return t.tw.Flush() }

func anySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (rt *runtime) addPageFlags(cmd *cobra.Command) {
	d := pagination.DefaultParams()
	cmd.Flags().IntVar(&rt.page.Page, "page", d.Page, "page number")
	cmd.Flags().IntVar(&rt.page.PerPage, "per-page", d.PerPage, "items per page (max 100)")
}

// paged cuts items down to the requested page. JSON output gets the whole
// page envelope; text output gets the rows and a footer naming the totals.
func paged[T any](rt *runtime, cmd *cobra.Command, items []T, noun string, rows func(*table, T), header ...string) error {
	r := pagination.Paginate(items, rt.page)
	if rt.jsonOut {
		return writeJSON(out(cmd), r)
	}
	if r.TotalCount == 0 {
		fmt.Fprintf(out(cmd), "No %s found\n", noun)
		return nil
	}
	if len(r.Data) > 0 {
		t := newTable(out(cmd), header...)
		for _, item := range r.Data {
			rows(t, item)
		}
		if err := t.flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out(cmd), "Page %d of %d (%d %s)\n", r.Page, r.TotalPages, r.TotalCount, noun)
	return nil
}
