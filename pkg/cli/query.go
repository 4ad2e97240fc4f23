package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nimburion/querykit/pkg/repository"
	"github.com/spf13/cast"
)

// RunQuery renders opts for db's dialect, executes the statement and writes the result to out.
// Aggregates print a single value, deletes print the affected row count, everything else a table.
func RunQuery(ctx context.Context, db repository.Database, opts RenderOptions, out io.Writer) error {
	opts.Dialect = db.Dialect().Name()
	if opts.Delete {
		d, err := renderData(opts)
		if err != nil {
			return err
		}
		if len(d.Conditions) == 0 {
			return repository.ErrMissingCriteria
		}
	}

	stmt, err := RenderStatement(opts)
	if err != nil {
		return err
	}

	switch {
	case opts.Aggregate != "":
		v, err := db.ExecuteScalar(ctx, stmt)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, formatCell(v))
		return err
	case opts.Delete:
		n, err := db.ExecuteNonQuery(ctx, stmt)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d row(s) deleted\n", n)
		return err
	default:
		table, err := db.ExecuteTable(ctx, stmt)
		if err != nil {
			return err
		}
		return writeTable(out, table)
	}
}

func writeTable(out io.Writer, table *repository.Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "(%d row(s))\n", table.Len())
	return err
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// writeStats prints the statements executed between two metric snapshots.
func writeStats(out io.Writer, before, after map[string]float64) error {
	keys := make([]string, 0, len(after))
	for k, v := range after {
		if v > before[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "dialect\toperation\tstatus\tcount")
	for _, k := range keys {
		parts := strings.SplitN(k, "/", 3)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", parts[0], parts[1], parts[2], int64(after[k]-before[k]))
	}
	return w.Flush()
}
