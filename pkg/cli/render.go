package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nimburion/querykit/pkg/query"
	"github.com/spf13/cobra"
)

// RenderOptions holds the flags of the render command.
type RenderOptions struct {
	From        string
	Select      []string
	Where       []string
	OrderBy     []string
	Limit       int
	HasLimit    bool
	Offset      int
	Dialect     string
	FiltersFile string
	FilterName  string
	Aggregate   string
	Column      string
	Distinct    string
	Group       string
	Delete      bool
}

// newRenderCommand prints the SQL a criteria would run, without touching a database.
func newRenderCommand() *cobra.Command {
	var opts RenderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render query criteria as SQL",
		Example: `  querykit render --from articles --where "score >= 10" --where "or title like 'Top%'" --order-by "score desc" --limit 5
  querykit render --from articles --filters filters.yaml --name popular --dialect postgres
  querykit render --from articles --aggregate sum --column score --where "author = kim"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.HasLimit = cmd.Flags().Changed("limit")
			out, err := RenderStatement(opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	addCriteriaFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlserver", "sql dialect: sqlserver, postgres, mysql, sqlite")
	return cmd
}

// addCriteriaFlags binds the flags shared by render and query.
func addCriteriaFlags(cmd *cobra.Command, opts *RenderOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.From, "from", "", "table to read from")
	flags.StringSliceVar(&opts.Select, "select", nil, "projected columns (default *)")
	flags.StringArrayVar(&opts.Where, "where", nil, `condition "field op value"; prefix with "or " to join with OR (repeatable)`)
	flags.StringArrayVar(&opts.OrderBy, "order-by", nil, `ordering "column [asc|desc]" (repeatable)`)
	flags.IntVar(&opts.Limit, "limit", 0, "maximum number of records")
	flags.IntVar(&opts.Offset, "offset", 0, "records to skip")
	flags.StringVar(&opts.FiltersFile, "filters", "", "named filter definition file")
	flags.StringVar(&opts.FilterName, "name", "", "named filter to use from --filters")
	flags.StringVar(&opts.Aggregate, "aggregate", "", "aggregate function: sum, avg, min, max, count")
	flags.StringVar(&opts.Column, "column", "*", "aggregated column")
	flags.StringVar(&opts.Distinct, "distinct", "", "distinct values of a column")
	flags.StringVar(&opts.Group, "group", "", "per-value counts of a column")
	flags.BoolVar(&opts.Delete, "delete", false, "delete the matching rows instead of selecting them")
	_ = cmd.MarkFlagRequired("from")
	cmd.MarkFlagsRequiredTogether("filters", "name")
	cmd.MarkFlagsMutuallyExclusive("aggregate", "distinct", "group", "delete")
	cmd.MarkFlagsMutuallyExclusive("where", "name")
}

// RenderStatement builds the statement described by opts.
func RenderStatement(opts RenderOptions) (string, error) {
	if strings.TrimSpace(opts.From) == "" {
		return "", errors.New("a table is required (--from)")
	}
	dialect, err := query.DialectFor(opts.Dialect)
	if err != nil {
		return "", err
	}

	d, err := renderData(opts)
	if err != nil {
		return "", err
	}

	b := query.NewSQLBuilder(dialect)
	switch {
	case opts.Aggregate != "":
		fn := strings.ToLower(strings.TrimSpace(opts.Aggregate))
		switch fn {
		case "sum", "avg", "min", "max", "count":
		default:
			return "", fmt.Errorf("unsupported aggregate %q (supported: sum, avg, min, max, count)", opts.Aggregate)
		}
		return b.BuildAggregate(fn, opts.Column, d, opts.From)
	case opts.Distinct != "":
		return b.BuildDistinct(opts.Distinct, d, opts.From)
	case opts.Group != "":
		return b.BuildGroup(opts.Group, d, opts.From)
	case opts.Delete:
		return b.BuildDelete(d, opts.From)
	default:
		return b.Build(d, opts.From)
	}
}

func renderData(opts RenderOptions) (query.Data, error) {
	var d query.Data
	if opts.FilterName != "" {
		named, err := loadNamedFilter(opts.FiltersFile, opts.FilterName)
		if err != nil {
			return query.Data{}, err
		}
		d = named
	} else {
		spec := query.FilterSpec{}
		for _, expr := range opts.Where {
			cond, err := parseWhereFlag(expr)
			if err != nil {
				return query.Data{}, err
			}
			spec.Where = append(spec.Where, cond)
		}
		q, err := spec.Query()
		if err != nil {
			return query.Data{}, err
		}
		if d, err = q.Data(); err != nil {
			return query.Data{}, err
		}
	}

	for _, expr := range opts.OrderBy {
		o, err := parseOrderByFlag(expr)
		if err != nil {
			return query.Data{}, err
		}
		d.Orderings = append(d.Orderings, o)
	}
	for _, col := range opts.Select {
		if col = strings.TrimSpace(col); col != "" {
			d.SelectFields = append(d.SelectFields, query.SelectField{Field: col})
		}
	}
	if opts.HasLimit {
		if opts.Limit < 0 {
			return query.Data{}, fmt.Errorf("%w: limit %d", query.ErrInvalidLimit, opts.Limit)
		}
		d.RecordLimit = opts.Limit
		d.IsRecordLimitEnabled = true
	}
	if opts.Offset < 0 {
		return query.Data{}, fmt.Errorf("%w: offset %d", query.ErrInvalidLimit, opts.Offset)
	}
	if opts.Offset > 0 {
		d.Offset = opts.Offset
	}
	d.From = opts.From
	return d, nil
}

func loadNamedFilter(path, name string) (query.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return query.Data{}, fmt.Errorf("open filters: %w", err)
	}
	defer f.Close()
	return namedFilterData(f, name)
}

func namedFilterData(r io.Reader, name string) (query.Data, error) {
	filters, err := query.LoadFilters(r)
	if err != nil {
		return query.Data{}, err
	}
	src, ok := filters[name]
	if !ok {
		return query.Data{}, fmt.Errorf("named filter %q is not defined", name)
	}
	return src.Data()
}

// parseWhereFlag accepts "field op value" with an optional leading "and " or "or ".
func parseWhereFlag(expr string) (query.ConditionSpec, error) {
	trimmed := strings.TrimSpace(expr)
	join := ""
	if word, rest, ok := strings.Cut(trimmed, " "); ok {
		switch strings.ToLower(word) {
		case "and", "or":
			join = strings.ToLower(word)
			trimmed = strings.TrimSpace(rest)
		}
	}
	cond, err := query.ParseConditionExpr(trimmed)
	if err != nil {
		return query.ConditionSpec{}, err
	}
	cond.Join = join
	return cond, nil
}

func parseOrderByFlag(expr string) (query.OrderByClause, error) {
	fields := strings.Fields(expr)
	switch {
	case len(fields) == 1:
		return query.OrderByClause{Field: fields[0], Ordering: query.Asc}, nil
	case len(fields) == 2 && strings.EqualFold(fields[1], "asc"):
		return query.OrderByClause{Field: fields[0], Ordering: query.Asc}, nil
	case len(fields) == 2 && strings.EqualFold(fields[1], "desc"):
		return query.OrderByClause{Field: fields[0], Ordering: query.Desc}, nil
	default:
		return query.OrderByClause{}, fmt.Errorf("order by %q: want \"column [asc|desc]\"", expr)
	}
}
