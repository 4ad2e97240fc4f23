package query

import "fmt"

// Data is the flat description of a select statement consumed by SQLBuilder.
type Data struct {
	SelectFields         []SelectField
	Conditions           []Condition
	Orderings            []OrderByClause
	From                 string
	RecordLimit          int
	IsRecordLimitEnabled bool
	Offset               int
}

// Source is anything that can produce query Data, typically a *Query.
type Source interface {
	Data() (Data, error)
}

// Data lets a plain Data value be passed where a Source is expected.
func (d Data) Data() (Data, error) {
	if err := d.Validate(); err != nil {
		return Data{}, err
	}
	return d.Clone(), nil
}

// Validate checks that every condition carries a comparison and the limits are sane.
func (d Data) Validate() error {
	for i, c := range d.Conditions {
		if !c.Complete() {
			return fmt.Errorf("%w: condition %d on %q", ErrIncompleteCondition, i, c.Field)
		}
	}
	if d.RecordLimit < 0 || d.Offset < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Clone returns a deep copy so callers can extend it without aliasing.
func (d Data) Clone() Data {
	out := d
	out.SelectFields = append([]SelectField(nil), d.SelectFields...)
	out.Conditions = append([]Condition(nil), d.Conditions...)
	out.Orderings = append([]OrderByClause(nil), d.Orderings...)
	return out
}

// HasConditions reports whether a where clause would be rendered.
func (d Data) HasConditions() bool {
	return len(d.Conditions) > 0
}
