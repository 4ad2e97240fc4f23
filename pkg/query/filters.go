package query

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FilterFile is the YAML document holding named filter definitions.
//
//	filters:
//	  published:
//	    where:
//	      - field: Status
//	        op: "="
//	        value: published
//	      - join: or
//	        field: Featured
//	        op: "="
//	        value: true
//	    order_by:
//	      - field: CreateDate
//	        desc: true
//	    limit: 20
type FilterFile struct {
	Filters map[string]FilterSpec `yaml:"filters"`
}

// FilterSpec defines one named filter.
type FilterSpec struct {
	Where   []ConditionSpec `yaml:"where"`
	OrderBy []OrderSpec     `yaml:"order_by"`
	Limit   *int            `yaml:"limit"`
}

// ConditionSpec defines one condition of a FilterSpec.
type ConditionSpec struct {
	Join  string `yaml:"join"`
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// OrderSpec defines one ordering term of a FilterSpec.
type OrderSpec struct {
	Field string `yaml:"field"`
	Desc  bool   `yaml:"desc"`
}

var comparisonAliases = map[string]Comparison{
	"=":           Equal,
	"==":          Equal,
	"eq":          Equal,
	"is":          Equal,
	"<>":          NotEqual,
	"!=":          NotEqual,
	"ne":          NotEqual,
	"not":         NotEqual,
	"is null":     IsNull,
	"null":        IsNull,
	"is not null": IsNotNull,
	"not null":    IsNotNull,
	"in":          InList,
	"not in":      NotInList,
	"like":        LikePattern,
	"<":           Less,
	"lt":          Less,
	"<=":          LessOrEqual,
	"lte":         LessOrEqual,
	">":           Greater,
	"gt":          Greater,
	">=":          GreaterEqual,
	"gte":         GreaterEqual,
}

// ParseComparison maps an operator spelling to a Comparison.
func ParseComparison(op string) (Comparison, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(op)), " ")
	if c, ok := comparisonAliases[normalized]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unsupported comparison %q", op)
}

// LoadFilters decodes a filter file into named query sources.
func LoadFilters(r io.Reader) (map[string]Source, error) {
	var file FilterFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return map[string]Source{}, nil
		}
		return nil, fmt.Errorf("decode filter file: %w", err)
	}

	out := make(map[string]Source, len(file.Filters))
	for name, spec := range file.Filters {
		q, err := spec.Query()
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
		out[name] = q
	}
	return out, nil
}

// Query converts the definition into a builder.
func (s FilterSpec) Query() (*Query[struct{}], error) {
	q := New[struct{}]()
	for i, c := range s.Where {
		if err := applyCondition(q, i, c); err != nil {
			return nil, err
		}
	}
	for _, o := range s.OrderBy {
		if o.Desc {
			q.OrderByDescending(Column(o.Field))
		} else {
			q.OrderBy(Column(o.Field))
		}
	}
	if s.Limit != nil {
		q.Limit(*s.Limit)
	}
	if err := q.End(); err != nil {
		return nil, err
	}
	return q, nil
}

func applyCondition(q *Query[struct{}], index int, c ConditionSpec) error {
	op, err := ParseComparison(c.Op)
	if err != nil {
		return fmt.Errorf("where[%d]: %w", index, err)
	}

	switch strings.ToLower(strings.TrimSpace(c.Join)) {
	case "", "and":
		q.Where(Column(c.Field))
	case "or":
		q.Or(Column(c.Field))
	default:
		return fmt.Errorf("where[%d]: unsupported join %q", index, c.Join)
	}

	var value Literal = NullLit{}
	if op != IsNull && op != IsNotNull {
		value, err = Value(c.Value)
		if err != nil {
			return fmt.Errorf("where[%d]: %w", index, err)
		}
		if op == InList || op == NotInList {
			if _, isList := value.(ListLit); !isList {
				value = ListLit{value}
			}
		}
	}
	q.Compare(op, value)
	return q.Err()
}

// ParseConditionExpr parses "field op value", e.g. "Id = 5" or "Title like 'a%'".
// The value is decoded as a YAML scalar or flow sequence, so 5 is numeric,
// true is boolean and [1, 2] is a list.
func ParseConditionExpr(expr string) (ConditionSpec, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return ConditionSpec{}, fmt.Errorf("condition %q: want \"field op value\"", expr)
	}
	spec := ConditionSpec{Field: fields[0]}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(expr), fields[0]))
	lower := strings.ToLower(rest)

	for _, op := range sortedAliases() {
		if !strings.HasPrefix(lower, op) {
			continue
		}
		tail := rest[len(op):]
		// word operators must end at a word boundary
		if isWordOp(op) && tail != "" && tail[0] != ' ' {
			continue
		}
		spec.Op = op
		tail = strings.TrimSpace(tail)
		if tail != "" {
			if err := yaml.Unmarshal([]byte(tail), &spec.Value); err != nil {
				return ConditionSpec{}, fmt.Errorf("condition %q: value: %w", expr, err)
			}
		}
		return spec, nil
	}
	return ConditionSpec{}, fmt.Errorf("condition %q: unsupported comparison", expr)
}

func isWordOp(op string) bool {
	return op[0] >= 'a' && op[0] <= 'z'
}

// sortedAliases lists operator spellings longest first so "<=" wins over "<".
func sortedAliases() []string {
	ops := make([]string, 0, len(comparisonAliases))
	for op := range comparisonAliases {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if len(ops[i]) != len(ops[j]) {
			return len(ops[i]) > len(ops[j])
		}
		return ops[i] < ops[j]
	})
	return ops
}
