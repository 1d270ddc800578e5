// Package timetable manages professors' weekly class schedules.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
)

const clockLayout = "15:04"

var weekdays = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// Weekday returns the Monday-first ordinal of a day name.
func Weekday(name string) (int, bool) {
	n, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}

// Clock parses an HH:mm time of day into minutes since midnight.
func Clock(s string) (int, bool) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// Manager owns the class_schedules collection.
type Manager struct {
	store    docstore.Store
	log      *zap.Logger
	validate *validator.Validate
}

func NewManager(store docstore.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New()
	mustRegister(v, "weekday", func(fl validator.FieldLevel) bool {
		_, ok := Weekday(fl.Field().String())
		return ok
	})
	mustRegister(v, "clock", func(fl validator.FieldLevel) bool {
		_, ok := Clock(fl.Field().String())
		return ok
	})
	return &Manager{store: store, log: logger, validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("timetable: register %q validation: %v", tag, err))
	}
}

// ListSchedules returns the professor's entries ordered by weekday, then start time.
func (m *Manager) ListSchedules(ctx context.Context, professorID string) ([]model.Schedule, error) {
	docs, err := m.store.Query(ctx, model.CollSchedules, docstore.Eq("professorId", professorID))
	if err != nil {
		return nil, apperr.Read(err, "Failed to load timetable")
	}
	out := make([]model.Schedule, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.ScheduleFromDoc(d))
	}
	Sort(out)
	return out, nil
}

// Sort orders entries by weekday ordinal and parsed start time. Unparseable
// days and times sort last.
func Sort(entries []model.Schedule) {
	key := func(s model.Schedule) (int, int) {
		day, ok := Weekday(s.DayOfWeek)
		if !ok {
			day = len(weekdays)
		}
		start, ok := Clock(s.StartTime)
		if !ok {
			start = 24 * 60
		}
		return day, start
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, si := key(entries[i])
		dj, sj := key(entries[j])
		if di != dj {
			return di < dj
		}
		if si != sj {
			return si < sj
		}
		return entries[i].ID < entries[j].ID
	})
}

// AddSchedule validates and stores a new entry, returning its id.
func (m *Manager) AddSchedule(ctx context.Context, s model.Schedule) (string, error) {
	if s.ProfessorID == "" {
		return "", apperr.Auth("Not authenticated")
	}
	s.CourseName = strings.TrimSpace(s.CourseName)
	s.Room = strings.TrimSpace(s.Room)
	s.StartTime = strings.TrimSpace(s.StartTime)
	s.EndTime = strings.TrimSpace(s.EndTime)
	if day, ok := Weekday(s.DayOfWeek); ok {
		s.DayOfWeek = dayName(day)
	}
	if err := m.validate.Struct(s); err != nil {
		return "", apperr.Validation(fieldMessage(err))
	}
	start, _ := Clock(s.StartTime)
	end, _ := Clock(s.EndTime)
	if end <= start {
		return "", apperr.Validation("End time must be after start time")
	}

	id, err := m.store.Add(ctx, model.CollSchedules, s.Doc())
	if err != nil {
		return "", apperr.Write(err, "Failed to add class")
	}
	m.log.Info("schedule added", zap.String("scheduleID", id), zap.String("professorID", s.ProfessorID))
	return id, nil
}

// Get loads one entry.
func (m *Manager) Get(ctx context.Context, id string) (model.Schedule, error) {
	doc, err := m.store.Get(ctx, model.CollSchedules, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.Schedule{}, apperr.NotFound("Class not found")
	}
	if err != nil {
		return model.Schedule{}, apperr.Read(err, "Failed to load class")
	}
	return model.ScheduleFromDoc(doc), nil
}

// DeleteSchedule removes one entry.
func (m *Manager) DeleteSchedule(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, model.CollSchedules, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("Class not found")
	}
	if err != nil {
		return apperr.Write(err, "Failed to delete class")
	}
	m.log.Info("schedule deleted", zap.String("scheduleID", id))
	return nil
}

func dayName(ordinal int) string {
	return time.Weekday((ordinal + 1) % 7).String()
}

func fieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "Please fill in all fields"
	case "weekday":
		return "Invalid day of week: " + fe.Value().(string)
	case "clock":
		return "Time must be in HH:mm format"
	}
	return "Invalid " + fe.Field()
}
