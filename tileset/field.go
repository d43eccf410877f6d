package tileset

import (
	"fmt"
	"sort"
	"strings"
)

// Field is one declared output attribute of a layer.
type Field struct {
	Name        string
	Description string
	// Values is nil when the field has no enumerated values.
	Values []FieldValue
}

// FieldValue is one possible output value of a field. When is nil for values
// that are only documented.
type FieldValue struct {
	Value string
	When  *Condition
}

func (f Field) String() string {
	if f.Description == "" {
		return f.Name
	}
	return f.Name + " -- " + f.Description
}

func (f Field) validate() error {
	if f.Values != nil && len(f.Values) == 0 {
		return ErrInvalidCondition{Field: f.Name, Reason: "values must not be empty when present"}
	}
	for _, v := range f.Values {
		if v.When == nil {
			continue
		}
		if err := v.When.Validate(); err != nil {
			return ErrInvalidCondition{Field: f.Name, Value: v.Value, Reason: err.Error()}
		}
	}
	return nil
}

// CaseSQL renders the field's value mapping as a CASE expression over the
// input fields. ok is false when no value carries a condition.
func (f Field) CaseSQL() (sql string, ok bool) {
	var b strings.Builder
	for _, v := range f.Values {
		if v.When == nil {
			continue
		}
		if !ok {
			b.WriteString("CASE")
			ok = true
		}
		fmt.Fprintf(&b, " WHEN %v THEN %v", v.When.SQL(), quoteLiteral(v.Value))
	}
	if !ok {
		return "", false
	}
	fmt.Fprintf(&b, " END AS %v", quoteIdent(f.Name))
	return b.String(), true
}

type CondOp uint8

const (
	CondEquals CondOp = iota
	CondIn
	CondLike
	CondAllOf
	CondAnyOf
)

func (op CondOp) String() string {
	switch op {
	case CondEquals:
		return "equals"
	case CondIn:
		return "in"
	case CondLike:
		return "like"
	case CondAllOf:
		return "all-of"
	case CondAnyOf:
		return "any-of"
	}
	return fmt.Sprintf("CondOp(%d)", op)
}

// Condition is a boolean expression tree over the input fields of a layer.
// Leaves (equals, in, like) use Field and Values, groups use Children.
type Condition struct {
	Op       CondOp
	Field    string
	Values   []string
	Children []*Condition
}

const (
	keyAnd = "__AND__"
	keyOr  = "__OR__"
)

// Validate reports structural problems in the tree.
func (c *Condition) Validate() error {
	switch c.Op {
	case CondEquals, CondLike:
		if c.Field == "" {
			return fmt.Errorf("%v condition without an input field", c.Op)
		}
		if len(c.Values) != 1 {
			return fmt.Errorf("%v condition on %q needs exactly one value", c.Op, c.Field)
		}
	case CondIn:
		if c.Field == "" {
			return fmt.Errorf("in condition without an input field")
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("in condition on %q has no values", c.Field)
		}
		for _, v := range c.Values {
			if strings.Contains(v, "%") {
				return fmt.Errorf("wildcard %q is not allowed inside a list for %q", v, c.Field)
			}
		}
	case CondAllOf, CondAnyOf:
		if len(c.Children) == 0 {
			return fmt.Errorf("empty %v group", c.Op)
		}
		for _, child := range c.Children {
			if child == nil {
				return fmt.Errorf("nil condition inside %v group", c.Op)
			}
			if err := child.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown condition operator %v", c.Op)
	}
	return nil
}

// SQL renders the condition. The condition must be valid.
func (c *Condition) SQL() string {
	switch c.Op {
	case CondEquals:
		return quoteIdent(c.Field) + "=" + quoteLiteral(c.Values[0])
	case CondLike:
		return quoteIdent(c.Field) + " LIKE " + quoteLiteral(c.Values[0])
	case CondIn:
		vals := make([]string, len(c.Values))
		for i := range c.Values {
			vals[i] = quoteLiteral(c.Values[i])
		}
		return quoteIdent(c.Field) + " IN (" + strings.Join(vals, ", ") + ")"
	}

	sep := " OR "
	if c.Op == CondAllOf {
		sep = " AND "
	}
	parts := make([]string, len(c.Children))
	for i, child := range c.Children {
		parts[i] = child.SQL()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// ParseCondition builds a condition tree from a decoded mapping. Keys are
// input field names whose value is a string or a list of strings; the
// special keys __AND__ and __OR__ hold a nested mapping or a list of
// mappings. Sibling keys of one mapping are OR-ed.
func ParseCondition(v interface{}) (*Condition, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("condition must be a mapping, got %T", v)
	}
	return parseMapping(m, CondAnyOf)
}

func parseMapping(m map[string]interface{}, op CondOp) (*Condition, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("empty condition mapping")
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	group := &Condition{Op: op}
	for _, k := range keys {
		var (
			child *Condition
			err   error
		)
		switch k {
		case keyAnd:
			child, err = parseGroup(m[k], CondAllOf)
		case keyOr:
			child, err = parseGroup(m[k], CondAnyOf)
		default:
			child, err = parseLeaf(k, m[k])
		}
		if err != nil {
			return nil, err
		}
		group.Children = append(group.Children, child)
	}

	if len(group.Children) == 1 {
		return group.Children[0], nil
	}
	return group, nil
}

func parseGroup(v interface{}, op CondOp) (*Condition, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		return parseMapping(val, op)
	case []interface{}:
		group := &Condition{Op: op}
		for _, item := range val {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%v list entries must be mappings, got %T", op, item)
			}
			child, err := parseMapping(m, CondAnyOf)
			if err != nil {
				return nil, err
			}
			group.Children = append(group.Children, child)
		}
		if len(group.Children) == 0 {
			return nil, fmt.Errorf("empty %v group", op)
		}
		return group, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(val))
		for i := range val {
			items[i] = val[i]
		}
		return parseGroup(items, op)
	}
	return nil, fmt.Errorf("%v group must be a mapping or a list of mappings, got %T", op, v)
}

func parseLeaf(field string, v interface{}) (*Condition, error) {
	switch val := v.(type) {
	case string:
		if strings.Contains(val, "%") {
			return &Condition{Op: CondLike, Field: field, Values: []string{val}}, nil
		}
		return &Condition{Op: CondEquals, Field: field, Values: []string{val}}, nil
	case []string:
		cond := &Condition{Op: CondIn, Field: field, Values: append([]string(nil), val...)}
		return cond, cond.Validate()
	case []interface{}:
		cond := &Condition{Op: CondIn, Field: field}
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, ErrInvalidCondition{Field: field, Reason: fmt.Sprintf("list values must be strings, got %T", item)}
			}
			cond.Values = append(cond.Values, s)
		}
		return cond, cond.Validate()
	}
	return nil, ErrInvalidCondition{Field: field, Reason: fmt.Sprintf("unsupported condition value type %T", v)}
}

func quoteLiteral(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.Replace(s, `"`, `""`, -1) + `"`
}
