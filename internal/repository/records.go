package repository

import (
	"fmt"

	"github.com/Elish-Ab/qualify-law/internal/interfaces"
)

func stringField(rec interfaces.Record, field string) string {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func boolField(rec interfaces.Record, field string) bool {
	switch v := rec.Fields[field].(type) {
	case bool:
		return v
	case float64:
		// The store serializes checkboxes as 0/1 in some responses.
		return v != 0
	}
	return false
}

// recordLinks normalizes a linked-record field, stored either as a string
// list or a single id.
func recordLinks(rec interfaces.Record, field string) []string {
	switch v := rec.Fields[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

func linkedTo(rec interfaces.Record, field, id string) bool {
	for _, link := range recordLinks(rec, field) {
		if link == id {
			return true
		}
	}
	return false
}
