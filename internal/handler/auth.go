package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/auth"
	"studentattendance/internal/model"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func tokenResponse(pair auth.TokenPair, userID string, role model.Role) gin.H {
	return gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExp.Unix(),
		"user_id":       userID,
		"role":          role,
	}
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx := c.Request.Context()
	acct, err := h.Identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	user, err := h.Profiles.LoadProfile(ctx, acct.UserID, acct.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.NotFound("User profile not found")
		}
		h.fail(c, err)
		return
	}
	role, ok := model.ParseRole(string(user.Role))
	if !ok {
		h.fail(c, apperr.Auth("Invalid user role: "+string(user.Role)))
		return
	}

	pair, err := h.Tokens.Issue(acct.UserID, string(role), acct.Email)
	if err != nil {
		h.Logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	h.Logger.Info("signed in", zap.String("userID", acct.UserID), zap.String("role", string(role)))
	c.JSON(http.StatusOK, tokenResponse(pair, acct.UserID, role))
}

// refresh rotates the token pair; the presented refresh token is revoked.
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx := c.Request.Context()
	claims, err := h.Tokens.Parse(req.RefreshToken, auth.TypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	fresh, err := h.Revoker.Revoke(ctx, claims.ID, remaining(claims))
	if err != nil {
		h.Logger.Error("revoke failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again later"})
		return
	}
	if !fresh {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token revoked"})
		return
	}

	pair, err := h.Tokens.Issue(claims.Subject, claims.Role, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, tokenResponse(pair, claims.Subject, model.Role(claims.Role)))
}

// signOut always succeeds; a valid refresh token is revoked.
func (h *Handler) signOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		if claims, err := h.Tokens.Parse(req.RefreshToken, auth.TypeRefresh); err == nil {
			if _, err := h.Revoker.Revoke(c.Request.Context(), claims.ID, remaining(claims)); err != nil {
				h.Logger.Warn("revoke on sign out failed", zap.String("userID", claims.Subject), zap.Error(err))
			}
		}
	}
	c.Status(http.StatusNoContent)
}

func remaining(claims auth.Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
