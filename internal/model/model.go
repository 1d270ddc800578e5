// Package model holds the stored entities and their document mapping.
package model

import (
	"strings"
	"time"

	"studentattendance/internal/docstore"
)

// Collection names in the document store.
const (
	CollUsers     = "users"
	CollSessions  = "attendance_sessions"
	CollRecords   = "attendance_records"
	CollSchedules = "class_schedules"
	CollAccounts  = "accounts"
)

// Role of a user. Immutable from the client's perspective.
type Role string

const (
	RoleProfessor Role = "PROFESSOR"
	RoleStudent   Role = "STUDENT"
)

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleProfessor:
		return RoleProfessor, true
	case RoleStudent:
		return RoleStudent, true
	}
	return "", false
}

// User is a profile document; ID equals the identity subject id.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
}

func (u User) Doc() docstore.Doc {
	return docstore.Doc{
		"email":      u.Email,
		"name":       u.Name,
		"role":       string(u.Role),
		"department": u.Department,
	}
}

func UserFromDoc(d docstore.Document) User {
	return User{
		ID:         d.ID,
		Email:      d.Data.String("email"),
		Name:       d.Data.String("name"),
		Role:       Role(d.Data.String("role")),
		Department: d.Data.String("department"),
	}
}

// Session is an attendance session opened by a professor.
type Session struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	CourseName  string `json:"course_name"`
	ProfessorID string `json:"professor_id"`
	StartTime   int64  `json:"start_time"` // epoch millis
	Active      bool   `json:"active"`
}

func (s Session) Doc() docstore.Doc {
	return docstore.Doc{
		"code":        s.Code,
		"courseName":  s.CourseName,
		"professorId": s.ProfessorID,
		"startTime":   s.StartTime,
		"active":      s.Active,
	}
}

func SessionFromDoc(d docstore.Document) Session {
	return Session{
		ID:          d.ID,
		Code:        d.Data.String("code"),
		CourseName:  d.Data.String("courseName"),
		ProfessorID: d.Data.String("professorId"),
		StartTime:   d.Data.Int64("startTime"),
		Active:      d.Data.Bool("active"),
	}
}

// StartedAt returns StartTime as a time.
func (s Session) StartedAt() time.Time { return time.UnixMilli(s.StartTime).UTC() }

// Record is one student's check-in to one session.
type Record struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

func (r Record) Doc() docstore.Doc {
	return docstore.Doc{
		"sessionId": r.SessionID,
		"studentId": r.StudentID,
		"timestamp": r.Timestamp,
	}
}

func RecordFromDoc(d docstore.Document) Record {
	return Record{
		ID:        d.ID,
		SessionID: d.Data.String("sessionId"),
		StudentID: d.Data.String("studentId"),
		Timestamp: d.Data.Int64("timestamp"),
	}
}

// Schedule is a weekly timetable entry owned by a professor.
type Schedule struct {
	ID          string `json:"id"`
	ProfessorID string `json:"professor_id"`
	CourseName  string `json:"course_name" validate:"required"`
	DayOfWeek   string `json:"day_of_week" validate:"required,weekday"`
	StartTime   string `json:"start_time" validate:"required,clock"`
	EndTime     string `json:"end_time" validate:"required,clock"`
	Room        string `json:"room" validate:"required"`
}

func (s Schedule) Doc() docstore.Doc {
	return docstore.Doc{
		"professorId": s.ProfessorID,
		"courseName":  s.CourseName,
		"dayOfWeek":   s.DayOfWeek,
		"startTime":   s.StartTime,
		"endTime":     s.EndTime,
		"room":        s.Room,
	}
}

func ScheduleFromDoc(d docstore.Document) Schedule {
	return Schedule{
		ID:          d.ID,
		ProfessorID: d.Data.String("professorId"),
		CourseName:  d.Data.String("courseName"),
		DayOfWeek:   d.Data.String("dayOfWeek"),
		StartTime:   d.Data.String("startTime"),
		EndTime:     d.Data.String("endTime"),
		Room:        d.Data.String("room"),
	}
}

// HistoryRow is one line of an attendance history view.
type HistoryRow struct {
	RecordID    string `json:"record_id"`
	SessionID   string `json:"session_id"`
	StudentID   string `json:"student_id"`
	CourseName  string `json:"course_name"`
	StudentName string `json:"student_name,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 { return t.UnixMilli() }
