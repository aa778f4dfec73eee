package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SuccessfulRequests *prometheus.CounterVec
	BadRequests        *prometheus.CounterVec
	FormsSubmitted     *prometheus.CounterVec
	TicketsCreated     *prometheus.CounterVec
}

func InitMetrics() *Metrics {
	m := &Metrics{
		SuccessfulRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_request",
				Help: "Total number of successful (2xx) HTTP requests",
			},
			[]string{"path"},
		),
		BadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unsuccessful_request",
				Help: "Total number of unsuccessful (4xx/5xx) HTTP requests",
			},
			[]string{"path"},
		),
		FormsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forms_submitted",
				Help: "Total number of submitted forms",
			},
			[]string{"template"},
		),
		TicketsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickets_created",
				Help: "Total number of support tickets created",
			},
			[]string{"priority"},
		),
	}

	prometheus.MustRegister(m.SuccessfulRequests)
	prometheus.MustRegister(m.BadRequests)
	prometheus.MustRegister(m.FormsSubmitted)
	prometheus.MustRegister(m.TicketsCreated)

	return m
}

// RequestCounter tallies requests per route pattern after the handler ran.
func (m *Metrics) RequestCounter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if c.Writer.Status() < 400 {
			m.SuccessfulRequests.WithLabelValues(path).Inc()
		} else {
			m.BadRequests.WithLabelValues(path).Inc()
		}
	}
}
