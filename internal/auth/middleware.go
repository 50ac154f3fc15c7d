package auth

import (
	"net/http"

	"go-hospital/internal/metrics"
	"go-hospital/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionCookie = "session"
	LoginPath     = "/login"

	ctxUser     = "user"
	ctxUsername = "username"
)

// Gate authenticates each request from the session cookie and applies
// the rule table before any handler runs.
type Gate struct {
	Rules        []Rule
	Auth         *Authenticator
	CookieSecure bool
	Log          *zap.Logger
	// Denied renders the not-authorized response. It must set the status.
	Denied gin.HandlerFunc
}

func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := Match(g.Rules, c.Request.URL.Path)
		if req.IsPublic() {
			c.Next()
			return
		}

		principal := g.principal(c)
		switch Authorize(g.Rules, c.Request.URL.Path, principal) {
		case RequireLogin:
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
		case Deny:
			metrics.AuthorizationDenials.Inc()
			g.Log.Warn("Access denied",
				zap.String("username", principal.Username),
				zap.String("path", c.Request.URL.Path),
				zap.String("required", req.String()))
			g.deny(c)
		default:
			c.Set(ctxUser, principal)
			c.Set(ctxUsername, principal.Username)
			c.Next()
		}
	}
}

func (g *Gate) principal(c *gin.Context) *user.AppUser {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return nil
	}
	u, err := g.Auth.Resolve(c.Request.Context(), token)
	if err != nil {
		g.Log.Debug("Session rejected", zap.Error(err))
		ClearSessionCookie(c, g.CookieSecure)
		return nil
	}
	return u
}

func (g *Gate) deny(c *gin.Context) {
	if g.Denied != nil {
		g.Denied(c)
	} else {
		c.String(http.StatusForbidden, "not authorized")
	}
	c.Abort()
}

// CurrentUser returns the authenticated user attached by the gate.
func CurrentUser(c *gin.Context) *user.AppUser {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*user.AppUser)
	return u
}

func SetSessionCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(MaxSessionAge.Seconds()), "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
