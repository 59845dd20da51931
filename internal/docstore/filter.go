package docstore

// Op is a filter comparison.
type Op int

const (
	// OpEq matches a field equal to the single value.
	OpEq Op = iota
	// OpIn matches a field equal to any of the values.
	OpIn
)

// Cond is one field condition. Fields are dotted paths.
type Cond struct {
	Field  string
	Op     Op
	Values []any
}

// Filter is a conjunction of conditions. The empty filter matches everything.
type Filter []Cond

// Eq builds an equality condition.
func Eq(field string, value any) Cond {
	return Cond{Field: field, Op: OpEq, Values: []any{value}}
}

// In builds a membership condition.
func In[T any](field string, values []T) Cond {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return Cond{Field: field, Op: OpIn, Values: vals}
}

// Matches reports whether doc satisfies every condition. A field that is
// missing or not a scalar never matches.
func (f Filter) Matches(doc Document) bool {
	for _, c := range f {
		if !c.matches(doc) {
			return false
		}
	}
	return true
}

func (c Cond) matches(doc Document) bool {
	v, ok := doc.Lookup(c.Field)
	if !ok {
		return false
	}
	key, ok := scalarKey(v)
	if !ok {
		return false
	}
	for _, want := range c.Values {
		if wk, ok := scalarKey(want); ok && wk == key {
			return true
		}
	}
	return false
}
