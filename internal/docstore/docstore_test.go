package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.Add(ctx, "attendance_sessions", Doc{"code": "123456", "active": true, "startTime": int64(10)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	doc, err := m.Get(ctx, "attendance_sessions", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Data.String("code") != "123456" || !doc.Data.Bool("active") || doc.Data.Int64("startTime") != 10 {
		t.Fatalf("unexpected document %+v", doc)
	}

	doc.Data["code"] = "mutated"
	again, _ := m.Get(ctx, "attendance_sessions", id)
	if again.Data.String("code") != "123456" {
		t.Fatalf("expected stored copy to be isolated from callers")
	}

	if err := m.Update(ctx, "attendance_sessions", id, Doc{"active": false}); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ = m.Get(ctx, "attendance_sessions", id)
	if again.Data.Bool("active") || again.Data.String("code") != "123456" {
		t.Fatalf("expected partial update, got %+v", again.Data)
	}

	if err := m.Delete(ctx, "attendance_sessions", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "attendance_sessions", id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Delete(ctx, "attendance_sessions", id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := m.Update(ctx, "attendance_sessions", id, Doc{"active": true}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestMemoryCreateConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Create(ctx, "attendance_records", "fixed", Doc{"studentId": "s1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Create(ctx, "attendance_records", "fixed", Doc{"studentId": "s1"}); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryQueryFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.Add(ctx, "records", Doc{"sessionId": "s1", "studentId": "u1"})
	b, _ := m.Add(ctx, "records", Doc{"sessionId": "s2", "studentId": "u1"})
	_, _ = m.Add(ctx, "records", Doc{"sessionId": "s3", "studentId": "u2"})

	tests := []struct {
		name    string
		filters []Filter
		want    int
	}{
		{name: "no filters", want: 3},
		{name: "eq", filters: []Filter{Eq("studentId", "u1")}, want: 2},
		{name: "eq and eq", filters: []Filter{Eq("studentId", "u1"), Eq("sessionId", "s2")}, want: 1},
		{name: "in", filters: []Filter{In("sessionId", []string{"s1", "s3"})}, want: 2},
		{name: "empty in", filters: []Filter{In("sessionId", nil)}, want: 0},
		{name: "id in", filters: []Filter{IDIn([]string{a, b, "missing"})}, want: 2},
		{name: "missing field", filters: []Filter{Eq("nope", "x")}, want: 0},
		{name: "type mismatch", filters: []Filter{Eq("studentId", true)}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := m.Query(ctx, "records", tt.filters...)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(docs) != tt.want {
				t.Fatalf("expected %d docs, got %d", tt.want, len(docs))
			}
		})
	}
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Add(ctx, "x", Doc{}); err == nil {
		t.Fatalf("expected cancelled context to fail the write")
	}
}

func TestDocInt64(t *testing.T) {
	d := Doc{
		"int":    7,
		"int32":  int32(7),
		"int64":  int64(7),
		"float":  float64(7),
		"number": json.Number("7"),
		"string": "7",
		"bogus":  []string{"7"},
	}
	for _, key := range []string{"int", "int32", "int64", "float", "number", "string"} {
		if got := d.Int64(key); got != 7 {
			t.Fatalf("%s: expected 7 got %d", key, got)
		}
	}
	if d.Int64("bogus") != 0 || d.Int64("absent") != 0 {
		t.Fatalf("expected zero for unsupported values")
	}
}

func TestBuildQuery(t *testing.T) {
	query, args, err := buildQuery("attendance_sessions", []Filter{
		Eq("code", "123456"),
		Eq("active", true),
		In("professorId", []string{"p1"}),
		IDIn([]string{"a", "b"}),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, frag := range []string{
		"collection = $1",
		"data->>'professorId' = ANY($2)",
		"id = ANY($3)",
		"data @> $4::jsonb",
	} {
		if !strings.Contains(query, frag) {
			t.Fatalf("expected %q in %s", frag, query)
		}
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if args[3] != `{"active":true,"code":"123456"}` {
		t.Fatalf("unexpected containment arg %v", args[3])
	}

	if _, _, err := buildQuery("x", []Filter{Eq("bad'field", 1)}); err == nil {
		t.Fatalf("expected invalid field name to be rejected")
	}
}

func TestDecodeJSONKeepsIntegers(t *testing.T) {
	data, err := decodeJSON([]byte(`{"timestamp": 1700000000123, "active": true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Int64("timestamp") != 1700000000123 || !data.Bool("active") {
		t.Fatalf("unexpected decode %+v", data)
	}
}
