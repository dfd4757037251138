// Package query models record-store filters as a small expression tree.
// Store adapters serialize the tree into their own dialect (Airtable
// formulas, SQL), so user input never reaches a filter expression as raw
// text.
package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

type Op int

const (
	OpAnd Op = iota
	OpOr
	OpEq       // field = value, case-sensitive
	OpEqFold   // field = value, case-insensitive
	OpContains // value is a substring of field, case-sensitive
	OpLinksTo  // value is one of the record links in field
)

// Predicate is a node in the filter tree. Leaf ops use Field/Value;
// OpAnd and OpOr use Children.
type Predicate struct {
	Op       Op
	Field    string
	Value    string
	Children []*Predicate
}

func And(children ...*Predicate) *Predicate {
	return &Predicate{Op: OpAnd, Children: children}
}

func Or(children ...*Predicate) *Predicate {
	return &Predicate{Op: OpOr, Children: children}
}

func Eq(field, value string) *Predicate {
	return &Predicate{Op: OpEq, Field: field, Value: value}
}

func EqFold(field, value string) *Predicate {
	return &Predicate{Op: OpEqFold, Field: field, Value: value}
}

func Contains(field, value string) *Predicate {
	return &Predicate{Op: OpContains, Field: field, Value: value}
}

func LinksTo(field, value string) *Predicate {
	return &Predicate{Op: OpLinksTo, Field: field, Value: value}
}

var (
	ErrMissingTenant = errors.New("query: tenant id is required")

	// ErrUnsafe marks filter input that no dialect can escape reliably.
	// Builders reject it instead of passing it through.
	ErrUnsafe = errors.New("query: value cannot be escaped safely")
)

// Validate rejects trees that cannot be serialized safely: empty branch
// nodes, empty field names, or values containing control characters that no
// dialect can escape reliably.
func (p *Predicate) Validate() error {
	switch p.Op {
	case OpAnd, OpOr:
		if len(p.Children) == 0 {
			return errors.New("query: empty branch node")
		}
		for _, c := range p.Children {
			if err := c.Validate(); err != nil {
				return err
			}
		}
		return nil
	case OpEq, OpEqFold, OpContains, OpLinksTo:
		if p.Field == "" {
			return errors.New("query: empty field name")
		}
		for _, r := range p.Value {
			if unicode.IsControl(r) {
				return fmt.Errorf("%w: control characters in value for %q", ErrUnsafe, p.Field)
			}
		}
		return nil
	default:
		return fmt.Errorf("query: unknown op %d", p.Op)
	}
}

// Walk visits the tree depth-first. Used by adapters that evaluate rather
// than serialize.
func (p *Predicate) Walk(visit func(*Predicate) error) error {
	if err := visit(p); err != nil {
		return err
	}
	for _, c := range p.Children {
		if err := c.Walk(visit); err != nil {
			return err
		}
	}
	return nil
}

func (p *Predicate) String() string {
	switch p.Op {
	case OpAnd, OpOr:
		parts := make([]string, len(p.Children))
		for i, c := range p.Children {
			parts[i] = c.String()
		}
		name := "AND"
		if p.Op == OpOr {
			name = "OR"
		}
		return name + "(" + strings.Join(parts, ", ") + ")"
	case OpEq:
		return fmt.Sprintf("%s = %q", p.Field, p.Value)
	case OpEqFold:
		return fmt.Sprintf("lower(%s) = %q", p.Field, strings.ToLower(p.Value))
	case OpContains:
		return fmt.Sprintf("%s contains %q", p.Field, p.Value)
	case OpLinksTo:
		return fmt.Sprintf("%s links %q", p.Field, p.Value)
	}
	return "?"
}
