// Package handler maps the attendance components onto the HTTP API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/attendance"
	"studentattendance/internal/auth"
	"studentattendance/internal/identity"
	"studentattendance/internal/live"
	"studentattendance/internal/model"
	"studentattendance/internal/profile"
	"studentattendance/internal/timetable"
)

// Deps are the components served by the API.
type Deps struct {
	Identity   identity.Service
	Attendance *attendance.Service
	Profiles   *profile.Manager
	Timetable  *timetable.Manager
	Hub        *live.Hub
	Tokens     auth.Issuer
	Revoker    auth.Revoker
	Logger     *zap.Logger
	// RequestTimeout bounds the backend work of one request; zero disables it.
	RequestTimeout time.Duration
}

// Handler holds the HTTP endpoints.
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Revoker == nil {
		d.Revoker = auth.NewMemoryRevoker()
	}
	return &Handler{Deps: d}
}

// Register mounts every /v1 route on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.POST("/auth/signin", h.signIn)
	v1.POST("/auth/refresh", h.refresh)
	v1.POST("/auth/signout", h.signOut)

	authed := v1.Group("", auth.UserAuth(h.Tokens))
	professor := auth.RequireRole(string(model.RoleProfessor))
	student := auth.RequireRole(string(model.RoleStudent))

	// websocket connections outlive the request timeout
	authed.GET("/sessions/:id/live", professor, h.liveFeed)

	timed := authed.Group("", h.timeout())
	timed.POST("/sessions", professor, h.createSession)
	timed.GET("/sessions", professor, h.listSessions)
	timed.POST("/sessions/:id/end", professor, h.endSession)

	timed.POST("/checkins", student, h.checkIn)
	timed.GET("/history", h.history)

	timed.GET("/profile", h.getProfile)
	timed.PATCH("/profile", h.updateProfile)

	timed.GET("/timetable", professor, h.listSchedules)
	timed.POST("/timetable", professor, h.addSchedule)
	timed.DELETE("/timetable/:id", professor, h.deleteSchedule)
}

func (h *Handler) timeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.RequestTimeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this resource"})
}

func caller(c *gin.Context) auth.Claims {
	claims, _ := auth.ClaimsFrom(c)
	return claims
}
