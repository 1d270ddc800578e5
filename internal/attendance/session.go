package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
	"studentattendance/internal/queue"
)

// maxCodeAttempts bounds redraws when a code is already held by an active session.
const maxCodeAttempts = 8

var errCodesExhausted = errors.New("no unused session code found")

// CreateSession opens an active session with a fresh code.
func (s *Service) CreateSession(ctx context.Context, courseName, professorID string) (model.Session, error) {
	courseName = strings.TrimSpace(courseName)
	if courseName == "" {
		return model.Session{}, apperr.Validation("Please enter a course name")
	}
	if professorID == "" {
		return model.Session{}, apperr.Auth("Not authenticated")
	}

	code, err := s.freeCode(ctx)
	if err != nil {
		return model.Session{}, apperr.Write(err, "Failed to create session")
	}
	sess, err := s.repo.InsertSession(ctx, model.Session{
		Code:        code,
		CourseName:  courseName,
		ProfessorID: professorID,
		StartTime:   model.Millis(s.now()),
		Active:      true,
	})
	if err != nil {
		return model.Session{}, apperr.Write(err, "Failed to create session")
	}
	s.metrics.SessionCreated()
	s.log.Info("session created",
		zap.String("sessionID", sess.ID),
		zap.String("professorID", professorID),
		zap.String("course", courseName))
	return sess, nil
}

// freeCode draws codes until one is not held by an active session. Two
// concurrent creations can still pick the same code.
func (s *Service) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.codes()
		if err != nil {
			return "", err
		}
		taken, err := s.repo.ActiveSessionsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if len(taken) == 0 {
			return code, nil
		}
		s.log.Debug("session code collision", zap.String("code", code))
	}
	return "", errCodesExhausted
}

// ListActiveSessions returns the professor's active sessions in backend order.
func (s *Service) ListActiveSessions(ctx context.Context, professorID string) ([]model.Session, error) {
	sessions, err := s.repo.ActiveSessionsByProfessor(ctx, professorID)
	if err != nil {
		if s.swallowListErrors {
			s.log.Warn("listing active sessions failed", zap.String("professorID", professorID), zap.Error(err))
			return []model.Session{}, nil
		}
		return nil, apperr.Read(err, "Failed to load sessions")
	}
	return sessions, nil
}

// GetSession loads one session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (model.Session, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.Session{}, apperr.NotFound("Session not found")
	}
	if err != nil {
		return model.Session{}, apperr.Read(err, "Failed to load session")
	}
	return sess, nil
}

// EndSession marks a session inactive.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	return s.end(ctx, sessionID, "manual")
}

func (s *Service) end(ctx context.Context, sessionID, reason string) error {
	err := s.repo.EndSession(ctx, sessionID)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("Session not found")
	}
	if err != nil {
		return apperr.Write(err, "Failed to end session")
	}
	s.metrics.SessionEnded(reason)
	s.log.Info("session ended", zap.String("sessionID", sessionID), zap.String("reason", reason))
	s.publish(ctx, queue.TypeSessionEnded, sessionID, nil)
	return nil
}

// ExpireStale ends every active session that started more than maxAge ago
// and returns how many were ended.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	active, err := s.repo.ActiveSessions(ctx)
	if err != nil {
		return 0, apperr.Read(err, "Failed to load sessions")
	}
	cutoff := s.now().Add(-maxAge)
	var ended int
	var errs []error
	for _, sess := range active {
		if !sess.StartedAt().Before(cutoff) {
			continue
		}
		if err := s.end(ctx, sess.ID, "expired"); err != nil {
			errs = append(errs, err)
			continue
		}
		ended++
	}
	return ended, errors.Join(errs...)
}
