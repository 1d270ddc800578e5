package attendance

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
	"studentattendance/internal/queue"
)

const (
	msgInvalidCode = "Invalid or expired session code"
	msgDuplicate   = "You have already marked attendance for this session"
)

// recordNamespace seeds deterministic record ids, one per (session, student) pair.
var recordNamespace = uuid.MustParse("0c8f3d4e-6b1a-4f7e-8a52-9d2e7b1c4a60")

// Status is the terminal state of a check-in attempt.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// Outcome classifies the error returned by CheckIn.
func Outcome(err error) Status {
	switch apperr.KindOf(err) {
	case "":
		return StatusSuccess
	case apperr.KindRejected, apperr.KindValidation, apperr.KindAuth:
		return StatusRejected
	default:
		return StatusFailed
	}
}

// RecordID is the id of the only record a student may hold for a session.
func RecordID(sessionID, studentID string) string {
	return uuid.NewSHA1(recordNamespace, []byte(sessionID+"/"+studentID)).String()
}

// CheckIn validates the code, refuses duplicates and writes the attendance record.
// The duplicate pre-check is backed by a conditional insert on RecordID, so
// concurrent attempts for the same pair yield one record and one rejection.
func (s *Service) CheckIn(ctx context.Context, code, studentID string) (rec model.Record, err error) {
	defer func() { s.metrics.CheckIn(string(Outcome(err))) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return model.Record{}, apperr.Validation("Please enter a session code")
	}
	if studentID == "" {
		return model.Record{}, apperr.Auth("Not authenticated")
	}
	if !ValidCode(code) {
		return model.Record{}, apperr.Rejected(msgInvalidCode)
	}

	sessions, err := s.repo.ActiveSessionsByCode(ctx, code)
	if err != nil {
		return model.Record{}, apperr.Read(err, "Failed to verify session code")
	}
	if len(sessions) == 0 {
		return model.Record{}, apperr.Rejected(msgInvalidCode)
	}
	if len(sessions) > 1 {
		s.log.Warn("session code held by several active sessions", zap.String("code", code), zap.Int("count", len(sessions)))
	}
	sess := sessions[0]

	existing, err := s.repo.RecordsFor(ctx, sess.ID, studentID)
	if err != nil {
		return model.Record{}, apperr.Read(err, "Failed to check attendance record")
	}
	if len(existing) > 0 {
		return model.Record{}, apperr.Rejected(msgDuplicate)
	}

	// the caller may have gone away while the lookups ran
	if err := ctx.Err(); err != nil {
		return model.Record{}, apperr.Write(err, "Failed to mark attendance")
	}

	rec = model.Record{
		ID:        RecordID(sess.ID, studentID),
		SessionID: sess.ID,
		StudentID: studentID,
		Timestamp: model.Millis(s.now()),
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return model.Record{}, apperr.Rejected(msgDuplicate)
		}
		return model.Record{}, apperr.Write(err, "Failed to mark attendance")
	}

	s.log.Info("attendance marked",
		zap.String("sessionID", sess.ID),
		zap.String("studentID", studentID))
	s.publish(ctx, queue.TypeCheckIn, sess.ID, rec)
	return rec, nil
}
