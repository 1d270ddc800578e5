package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/attendance"
)

type createSessionRequest struct {
	CourseName string `json:"course_name"`
}

type checkInRequest struct {
	Code string `json:"code"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	sess, err := h.Attendance.CreateSession(c.Request.Context(), req.CourseName, caller(c).Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.Attendance.ListActiveSessions(c.Request.Context(), caller(c).Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ownSession loads the session in :id and writes an error response unless the caller owns it.
func (h *Handler) ownSession(c *gin.Context) (string, bool) {
	id := c.Param("id")
	sess, err := h.Attendance.GetSession(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	if sess.ProfessorID != caller(c).Subject {
		forbidden(c)
		return "", false
	}
	return id, true
}

func (h *Handler) endSession(c *gin.Context) {
	id, ok := h.ownSession(c)
	if !ok {
		return
	}
	if err := h.Attendance.EndSession(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": true})
}

func (h *Handler) liveFeed(c *gin.Context) {
	id, ok := h.ownSession(c)
	if !ok {
		return
	}
	if err := h.Hub.Serve(c.Writer, c.Request, id); err != nil {
		h.Logger.Debug("live upgrade failed", zap.String("sessionID", id), zap.Error(err))
	}
}

func (h *Handler) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	rec, err := h.Attendance.CheckIn(c.Request.Context(), req.Code, caller(c).Subject)
	status := attendance.Outcome(err)
	if err != nil {
		if status == attendance.StatusFailed {
			h.Logger.Warn("check-in failed", zap.String("studentID", caller(c).Subject), zap.Error(err))
		}
		c.JSON(apperr.HTTPStatus(err), gin.H{"status": status, "error": apperr.Message(err)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": status, "record": rec})
}

func (h *Handler) history(c *gin.Context) {
	rows, err := h.Attendance.History(c.Request.Context(), caller(c).Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": rows})
}
