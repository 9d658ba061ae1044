package auth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cameronmore/sessionauth/sessions"
)

// Metrics counts session activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	created   *prometheus.CounterVec
	destroyed *prometheus.CounterVec
	lookups   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_sessions_created_total",
			Help: "Sessions created, by result.",
		}, []string{"result"}),
		destroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_sessions_destroyed_total",
			Help: "Session destroy attempts, by result.",
		}, []string{"result"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionauth_session_lookups_total",
			Help: "Session id lookups, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.created, m.destroyed, m.lookups)
	}
	return m
}

func (m *Metrics) sessionCreated(err error) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) sessionDestroyed(err error) {
	if m == nil {
		return
	}
	m.destroyed.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) sessionLookup(err error) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sessions.ErrStorageUnavailable):
		return "storage_error"
	case errors.Is(err, sessions.ErrSessionExpired):
		return "expired"
	case errors.Is(err, sessions.ErrInvalidSession), errors.Is(err, sessions.ErrInvalidUserId):
		return "invalid"
	case errors.Is(err, sessions.ErrSessionNotFound):
		return "not_found"
	default:
		return "error"
	}
}
