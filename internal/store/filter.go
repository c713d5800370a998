package store

import (
	"fmt"
	"strings"
)

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "$eq"
	OpNe Op = "$ne"
)

// Condition compares one field against a value. Field may use dot notation for nested values.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq matches documents whose field equals v. A nil v matches absent or null fields.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Value: v} }

// Ne matches documents whose field is absent or differs from v.
func Ne(field string, v any) Condition { return Condition{Field: field, Op: OpNe, Value: v} }

// Filter is a conjunction of conditions. The zero Filter matches everything.
type Filter []Condition

// Where builds a Filter from conditions.
func Where(conds ...Condition) Filter { return Filter(conds) }

// All matches every document.
var All = Filter(nil)

func (f Filter) String() string {
	if len(f) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(f))
	for _, c := range f {
		parts = append(parts, fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Matches evaluates f against an already decoded document.
func (f Filter) Matches(doc Document) bool {
	for _, c := range f {
		v, ok := lookup(doc, c.Field)
		eq := ok && equalValues(v, c.Value)
		if c.Value == nil {
			eq = !ok || v == nil
		}
		switch c.Op {
		case OpEq:
			if !eq {
				return false
			}
		case OpNe:
			if eq {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func lookup(doc Document, field string) (any, bool) {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			if d, isDoc := cur.(Document); isDoc {
				m = d
			} else {
				return nil, false
			}
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// equalValues compares a document value with a filter value. An array
// matches when one of its elements does.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if arr, ok := a.([]any); ok {
		for _, el := range arr {
			if el != nil && scalarEqual(el, b) {
				return true
			}
		}
		return false
	}
	return scalarEqual(a, b)
}

func scalarEqual(a, b any) bool {
	if fa, ok := numeric(a); ok {
		fb, ok := numeric(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// numeric is AsFloat without string parsing; "1" and 1 are different values.
func numeric(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	return AsFloat(v)
}
