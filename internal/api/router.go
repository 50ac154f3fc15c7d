package api

import (
	"context"
	"net/http"

	"go-hospital/internal/auth"
	"go-hospital/internal/config"
	"go-hospital/internal/logger"
	"go-hospital/internal/metrics"
	"go-hospital/internal/patient"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries the collaborators the handlers need.
type Deps struct {
	Patients patient.Repository
	Auth     *auth.Authenticator
	Log      *zap.Logger
	// Rules overrides auth.DefaultRules when set.
	Rules []auth.Rule
	// Ping reports store health for /health. Optional.
	Ping func(context.Context) error
}

func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Rules == nil {
		d.Rules = auth.DefaultRules()
	}

	r := gin.New()
	r.Use(logger.GinMiddleware(d.Log), gin.CustomRecovery(recoveryHandler(d.Log)))

	tmpl, err := loadTemplates()
	if err != nil {
		panic(err)
	}
	r.SetHTMLTemplate(tmpl)

	gate := &auth.Gate{
		Rules:        d.Rules,
		Auth:         d.Auth,
		CookieSecure: cfg.Server.CookieSecure,
		Log:          d.Log,
		Denied:       notAuthorizedHandler,
	}
	r.Use(gate.Middleware())

	r.StaticFS("/static", staticFS())
	r.GET("/health", healthHandler(d.Ping))
	r.GET("/metrics", metrics.Handler())
	r.GET("/notAuthorized", notAuthorizedHandler)

	r.GET("/", homeHandler)
	r.GET(auth.LoginPath, LoginPageHandler())
	r.POST(auth.LoginPath, LoginHandler(d.Auth, cfg.Server.CookieSecure, d.Log))
	r.POST("/logout", LogoutHandler(d.Auth, cfg.Server.CookieSecure, d.Log))

	r.GET("/user/index", IndexHandler(d.Patients, d.Log))

	admin := r.Group("/admin")
	{
		admin.GET("/delete", DeletePatientHandler(d.Patients, d.Log))
		admin.GET("/formPatients", FormPatientsHandler())
		admin.GET("/editPatient", EditPatientHandler(d.Patients, d.Log))
		admin.POST("/save", SavePatientHandler(d.Patients, d.Log))
	}

	r.NoRoute(func(c *gin.Context) {
		renderError(c, http.StatusNotFound, "Page not found.")
	})
	return r
}
