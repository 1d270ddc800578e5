package timetable

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
)

func entry(day, start, end string) model.Schedule {
	return model.Schedule{
		ProfessorID: "p1",
		CourseName:  "Networks",
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		Room:        "B12",
	}
}

func TestListSchedulesCalendarOrder(t *testing.T) {
	m := NewManager(docstore.NewMemory(), nil)
	ctx := context.Background()
	for _, s := range []model.Schedule{
		entry("Friday", "08:00", "09:00"),
		entry("monday", "14:00", "15:00"),
		entry("Monday", "09:00", "10:00"),
		entry("Wednesday", "9:30", "11:00"),
	} {
		if _, err := m.AddSchedule(ctx, s); err != nil {
			t.Fatalf("add %+v: %v", s, err)
		}
	}
	other := entry("Monday", "07:00", "08:00")
	other.ProfessorID = "p2"
	if _, err := m.AddSchedule(ctx, other); err != nil {
		t.Fatalf("add other: %v", err)
	}

	got, err := m.ListSchedules(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Monday 09:00", "Monday 14:00", "Wednesday 9:30", "Friday 08:00"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.DayOfWeek+" "+s.StartTime != want[i] {
			t.Fatalf("position %d: expected %s got %s %s", i, want[i], s.DayOfWeek, s.StartTime)
		}
	}
}

func TestAddScheduleValidation(t *testing.T) {
	m := NewManager(docstore.NewMemory(), nil)
	ctx := context.Background()

	noRoom := entry("Monday", "09:00", "10:00")
	noRoom.Room = " "
	anon := entry("Monday", "09:00", "10:00")
	anon.ProfessorID = ""

	tests := []struct {
		name string
		in   model.Schedule
		kind apperr.Kind
	}{
		{name: "blank room", in: noRoom, kind: apperr.KindValidation},
		{name: "bad day", in: entry("Funday", "09:00", "10:00"), kind: apperr.KindValidation},
		{name: "bad time", in: entry("Monday", "9am", "10:00"), kind: apperr.KindValidation},
		{name: "end before start", in: entry("Monday", "10:00", "09:00"), kind: apperr.KindValidation},
		{name: "anonymous", in: anon, kind: apperr.KindAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.AddSchedule(ctx, tt.in); !apperr.Is(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestDeleteScheduleRemovesOnlyThatID(t *testing.T) {
	m := NewManager(docstore.NewMemory(), nil)
	ctx := context.Background()
	var ids []string
	for _, day := range []string{"Monday", "Tuesday", "Thursday"} {
		id, err := m.AddSchedule(ctx, entry(day, "09:00", "10:00"))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, id)
	}

	if err := m.DeleteSchedule(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := m.ListSchedules(ctx, "p1")
	if len(got) != 2 || got[0].ID != ids[0] || got[1].ID != ids[2] {
		t.Fatalf("unexpected remaining entries %+v", got)
	}
	if err := m.DeleteSchedule(ctx, ids[1]); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := m.Get(ctx, ids[0]); err != nil {
		t.Fatalf("get kept entry: %v", err)
	}
}

func TestWeekdayAndClock(t *testing.T) {
	if n, ok := Weekday(" SUNDAY "); !ok || n != 6 {
		t.Fatalf("expected sunday ordinal 6, got %d %v", n, ok)
	}
	if _, ok := Weekday("Fri"); ok {
		t.Fatalf("abbreviations are not day names")
	}
	if m, ok := Clock("9:05"); !ok || m != 545 {
		t.Fatalf("expected 545 minutes, got %d %v", m, ok)
	}
	if _, ok := Clock("24:00"); ok {
		t.Fatalf("24:00 is not a valid clock time")
	}
	if dayName(0) != "Monday" || dayName(6) != "Sunday" {
		t.Fatalf("unexpected day names %s %s", dayName(0), dayName(6))
	}
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for an empty validation tag")
		}
	}()
	mustRegister(validator.New(), "", func(validator.FieldLevel) bool { return true })
}

func TestNewManagerRegistersTags(t *testing.T) {
	m := NewManager(docstore.NewMemory(), nil)
	in := struct {
		Day   string `validate:"weekday"`
		Start string `validate:"clock"`
	}{Day: "Monday", Start: "09:30"}
	if err := m.validate.Struct(in); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	in.Day, in.Start = "Funday", "25:00"
	if err := m.validate.Struct(in); err == nil {
		t.Fatalf("invalid input accepted")
	}
}
