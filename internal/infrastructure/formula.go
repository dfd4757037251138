package infrastructure

import (
	"fmt"
	"strings"

	"github.com/Elish-Ab/qualify-law/internal/query"
)

// Formula serializes a predicate tree into the store's filterByFormula
// dialect. Values are quote-escaped; anything that cannot be escaped safely
// is rejected up front by Validate.
func Formula(p *query.Predicate) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return formulaNode(p)
}

func formulaNode(p *query.Predicate) (string, error) {
	switch p.Op {
	case query.OpAnd, query.OpOr:
		parts := make([]string, len(p.Children))
		for i, c := range p.Children {
			s, err := formulaNode(c)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		name := "AND"
		if p.Op == query.OpOr {
			name = "OR"
		}
		return name + "(" + strings.Join(parts, ",") + ")", nil
	case query.OpEq:
		field, err := formulaField(p.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = '%s'", field, escapeFormula(p.Value)), nil
	case query.OpEqFold:
		field, err := formulaField(p.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("LOWER(%s) = '%s'", field, escapeFormula(strings.ToLower(p.Value))), nil
	case query.OpContains:
		field, err := formulaField(p.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("FIND('%s', %s) > 0", escapeFormula(p.Value), field), nil
	case query.OpLinksTo:
		field, err := formulaField(p.Field)
		if err != nil {
			return "", err
		}
		// Linked-record fields render as comma-joined id lists.
		return fmt.Sprintf("FIND('%s', ARRAYJOIN(%s)) > 0", escapeFormula(p.Value), field), nil
	}
	return "", fmt.Errorf("formula: unsupported op %d", p.Op)
}

// formulaField wraps a field name in braces. Field names come from
// compile-time constants, but a brace would still break out of the
// reference, so reject rather than escape.
func formulaField(name string) (string, error) {
	if strings.ContainsAny(name, "{}") {
		return "", fmt.Errorf("formula: field name %q cannot be referenced safely", name)
	}
	return "{" + name + "}", nil
}

func escapeFormula(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
