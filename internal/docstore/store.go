// Package docstore is the client contract for the document database: named
// collections of documents addressed by opaque string ids.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned by Create when the id is already taken.
	ErrConflict = errors.New("document already exists")
)

// IDField addresses the document id inside a Filter.
const IDField = "__id__"

// Doc is the field set of a document.
type Doc map[string]any

// Document is a stored document and its id.
type Document struct {
	ID   string
	Data Doc
}

// Op is a predicate operator.
type Op int

const (
	OpEq Op = iota
	OpIn
)

// Filter is an equality or inclusion predicate on a single field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// In matches documents whose string field is one of values. An empty set matches nothing.
func In(field string, values []string) Filter { return Filter{Field: field, Op: OpIn, Value: values} }

// IDIn matches documents whose id is one of ids.
func IDIn(ids []string) Filter { return In(IDField, ids) }

// Store is implemented by every backend. Query applies all filters with AND
// semantics; result order is backend-defined.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Add(ctx context.Context, collection string, data Doc) (string, error)
	Create(ctx context.Context, collection, id string, data Doc) error
	Update(ctx context.Context, collection, id string, fields Doc) error
	Delete(ctx context.Context, collection, id string) error
	Close(ctx context.Context) error
}

// String reads a string field, "" when absent or of another type.
func (d Doc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool reads a bool field.
func (d Doc) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Int64 reads an integer field regardless of how the backend decoded it.
func (d Doc) Int64(key string) int64 {
	switch v := d[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(math.Round(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(math.Round(f))
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func (d Doc) clone() Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// matches evaluates filters against an in-process document.
func matches(id string, data Doc, filters []Filter) bool {
	for _, f := range filters {
		var val any
		if f.Field == IDField {
			val = id
		} else {
			v, ok := data[f.Field]
			if !ok {
				return false
			}
			val = v
		}
		switch f.Op {
		case OpEq:
			if !equalValues(val, f.Value) {
				return false
			}
		case OpIn:
			s, ok := val.(string)
			if !ok || !contains(f.Value.([]string), s) {
				return false
			}
		}
	}
	return true
}

func equalValues(a, b any) bool {
	switch a.(type) {
	case string, bool:
		return a == b
	}
	if isNumber(a) && isNumber(b) {
		return (Doc{"v": a}).Int64("v") == (Doc{"v": b}).Int64("v")
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float64, json.Number:
		return true
	}
	return false
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// emptyIn reports whether any filter is an inclusion over an empty set.
func emptyIn(filters []Filter) bool {
	for _, f := range filters {
		if f.Op == OpIn && len(f.Value.([]string)) == 0 {
			return true
		}
	}
	return false
}
