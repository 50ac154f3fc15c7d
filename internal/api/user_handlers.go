package api

import (
	"errors"
	"net/http"

	"go-hospital/internal/auth"
	"go-hospital/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /login
func LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		c.HTML(http.StatusOK, "login.html", pageData(c, gin.H{
			"title":  "Sign in",
			"error":  q.Has("error"),
			"logout": q.Has("logout"),
		}))
	}
}

// POST /login
func LoginHandler(a *auth.Authenticator, cookieSecure bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		token, u, err := a.Login(c.Request.Context(), username, c.PostForm("password"))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("failure").Inc()
			log.Info("Login failed", zap.String("username", username))
			c.Redirect(http.StatusFound, auth.LoginPath+"?error")
			return
		}
		if err != nil {
			metrics.Logins.WithLabelValues("error").Inc()
			log.Error("Login error", zap.String("username", username), zap.Error(err))
			renderError(c, http.StatusInternalServerError, "Sign in is unavailable, try again later.")
			return
		}
		metrics.Logins.WithLabelValues("success").Inc()
		log.Info("Login succeeded", zap.String("username", u.Username), zap.Strings("roles", u.RoleNames()))
		auth.SetSessionCookie(c, token, cookieSecure)
		c.Redirect(http.StatusFound, "/user/index")
	}
}

// POST /logout
func LogoutHandler(a *auth.Authenticator, cookieSecure bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := auth.CurrentUser(c); u != nil {
			if err := a.Logout(c.Request.Context(), u.Username); err != nil {
				log.Warn("Failed to drop session", zap.String("username", u.Username), zap.Error(err))
			}
		}
		auth.ClearSessionCookie(c, cookieSecure)
		c.Redirect(http.StatusFound, auth.LoginPath+"?logout")
	}
}
