package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studentattendance/internal/model"
)

type updateProfileRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

type scheduleRequest struct {
	CourseName string `json:"course_name"`
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Room       string `json:"room"`
}

func (h *Handler) getProfile(c *gin.Context) {
	claims := caller(c)
	user, err := h.Profiles.LoadProfile(c.Request.Context(), claims.Subject, claims.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.Profiles.UpdateProfile(c.Request.Context(), caller(c).Subject, req.Name, req.Department); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (h *Handler) listSchedules(c *gin.Context) {
	entries, err := h.Timetable.ListSchedules(c.Request.Context(), caller(c).Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": entries})
}

func (h *Handler) addSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	id, err := h.Timetable.AddSchedule(c.Request.Context(), model.Schedule{
		ProfessorID: caller(c).Subject,
		CourseName:  req.CourseName,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Room:        req.Room,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) deleteSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	entry, err := h.Timetable.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if entry.ProfessorID != caller(c).Subject {
		forbidden(c)
		return
	}
	if err := h.Timetable.DeleteSchedule(ctx, entry.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
