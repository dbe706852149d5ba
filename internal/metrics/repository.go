package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout groups the collectors describing checkout orchestration.
type Checkout struct {
	outcomes     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	c := &Checkout{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Checkout payment steps by outcome and status.",
		}, []string{"outcome", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_errors_total",
			Help: "Checkout payment steps that failed, by error kind.",
		}, []string{"step", "kind"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checkout_step_duration_seconds",
			Help:    "Duration of checkout payment steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
	}

	if reg != nil {
		reg.MustRegister(c.outcomes, c.errors, c.stepDuration)
	}
	return c
}

func (c *Checkout) Outcome(outcome, status string) {
	c.outcomes.WithLabelValues(outcome, status).Inc()
}

func (c *Checkout) Error(step, kind string) {
	c.errors.WithLabelValues(step, kind).Inc()
}

// ErrorCounter exposes the error counter of one step and kind.
func (c *Checkout) ErrorCounter(step, kind string) prometheus.Counter {
	return c.errors.WithLabelValues(step, kind)
}

func (c *Checkout) ObserveStep(step string, t *Timer) {
	c.stepDuration.WithLabelValues(step).Observe(t.Duration().Seconds())
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
