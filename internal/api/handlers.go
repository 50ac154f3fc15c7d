package api

import (
	"context"
	"net/http"
	"time"

	"go-hospital/internal/auth"
	"go-hospital/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /health
func healthHandler(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"error":  gin.H{"message": "database unreachable"},
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
}

// GET /
func homeHandler(c *gin.Context) {
	c.Redirect(http.StatusFound, "/user/index")
}

// GET /notAuthorized, also rendered by the gate on a missing role.
func notAuthorizedHandler(c *gin.Context) {
	c.HTML(http.StatusForbidden, "notAuthorized.html", pageData(c, gin.H{"title": "Not authorized"}))
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", pageData(c, gin.H{
		"title":      http.StatusText(status),
		"status":     status,
		"statusText": http.StatusText(status),
		"message":    message,
	}))
}

// pageData adds the signed-in user to template data.
func pageData(c *gin.Context, data gin.H) gin.H {
	if u := auth.CurrentUser(c); u != nil {
		data["username"] = u.Username
		data["isAdmin"] = u.HasRole(user.RoleAdmin)
	}
	return data
}

func recoveryHandler(log *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err any) {
		log.Error("Panic recovered",
			zap.Any("panic", err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path))
		renderError(c, http.StatusInternalServerError, "Something went wrong.")
		c.Abort()
	}
}
