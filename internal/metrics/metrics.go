package metrics

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PatientsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_patients_saved_total",
		Help: "Patients persisted through the admin form, by operation (create, update).",
	}, []string{"operation"})
	PatientsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hospital_patients_deleted_total",
		Help: "Patients removed by an admin.",
	})
	ValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hospital_patient_validation_failures_total",
		Help: "Patient form submissions rejected by validation.",
	})
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hospital_logins_total",
		Help: "Login attempts by outcome (success, failure, error).",
	}, []string{"outcome"})
	AuthorizationDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hospital_authorization_denials_total",
		Help: "Authenticated requests refused for missing role.",
	})
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// RegisterOnlineUsers exposes the live session count as a gauge.
func RegisterOnlineUsers(reg prometheus.Registerer, sessions SessionCounter) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hospital_online_users",
		Help: "Users holding a live session.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := sessions.Count(ctx)
		if err != nil {
			return -1
		}
		return float64(n)
	}))
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
