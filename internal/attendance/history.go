package attendance

import (
	"context"
	"errors"
	"sort"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
)

// History returns the attendance history view matching the user's role.
func (s *Service) History(ctx context.Context, userID string) ([]model.HistoryRow, error) {
	if userID == "" {
		return nil, apperr.Auth("Not authenticated")
	}
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperr.NotFound("User role not found")
	}
	if err != nil {
		return nil, apperr.Read(err, "Failed to load user role")
	}
	role, ok := model.ParseRole(string(user.Role))
	if !ok {
		if user.Role == "" {
			return nil, apperr.NotFound("User role not found")
		}
		return nil, apperr.Auth("Invalid user role")
	}
	if role == model.RoleProfessor {
		return s.ProfessorHistory(ctx, userID)
	}
	return s.StudentHistory(ctx, userID)
}

// ProfessorHistory joins the professor's sessions, their records and the
// students' names. Any failing stage aborts the whole aggregation.
func (s *Service) ProfessorHistory(ctx context.Context, professorID string) ([]model.HistoryRow, error) {
	sessions, err := s.repo.SessionsByProfessor(ctx, professorID)
	if err != nil {
		return nil, apperr.Read(err, "Failed to load sessions")
	}
	if len(sessions) == 0 {
		return []model.HistoryRow{}, nil
	}
	courses := make(map[string]string, len(sessions))
	sessionIDs := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		courses[sess.ID] = sess.CourseName
		sessionIDs = append(sessionIDs, sess.ID)
	}

	records, err := s.repo.RecordsBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, apperr.Read(err, "Failed to load attendance records")
	}
	if len(records) == 0 {
		return []model.HistoryRow{}, nil
	}

	studentIDs := distinct(records, func(r model.Record) string { return r.StudentID })
	users, err := s.repo.UsersByIDs(ctx, studentIDs)
	if err != nil {
		return nil, apperr.Read(err, "Failed to load student names")
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	rows := make([]model.HistoryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, model.HistoryRow{
			RecordID:    r.ID,
			SessionID:   r.SessionID,
			StudentID:   r.StudentID,
			CourseName:  courses[r.SessionID],
			StudentName: names[r.StudentID],
			Timestamp:   r.Timestamp,
		})
	}
	sortNewestFirst(rows)
	return rows, nil
}

// StudentHistory joins the student's records with their sessions' course names.
func (s *Service) StudentHistory(ctx context.Context, studentID string) ([]model.HistoryRow, error) {
	records, err := s.repo.RecordsByStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Read(err, "Failed to load attendance records")
	}
	if len(records) == 0 {
		return []model.HistoryRow{}, nil
	}

	sessionIDs := distinct(records, func(r model.Record) string { return r.SessionID })
	sessions, err := s.repo.SessionsByIDs(ctx, sessionIDs)
	if err != nil {
		return nil, apperr.Read(err, "Failed to load session details")
	}
	courses := make(map[string]string, len(sessions))
	for _, sess := range sessions {
		courses[sess.ID] = sess.CourseName
	}

	rows := make([]model.HistoryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, model.HistoryRow{
			RecordID:   r.ID,
			SessionID:  r.SessionID,
			StudentID:  studentID,
			CourseName: courses[r.SessionID],
			Timestamp:  r.Timestamp,
		})
	}
	sortNewestFirst(rows)
	return rows, nil
}

func distinct(records []model.Record, key func(model.Record) string) []string {
	seen := make(map[string]bool, len(records))
	var out []string
	for _, r := range records {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func sortNewestFirst(rows []model.HistoryRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp > rows[j].Timestamp
		}
		return rows[i].RecordID < rows[j].RecordID
	})
}
