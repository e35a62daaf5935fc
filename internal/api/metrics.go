package api

import (
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records outbound request outcomes
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the client metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_api_requests_total",
			Help: "API requests by operation and HTTP status code",
		}, []string{"op", "code"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillswap_api_failures_total",
			Help: "Failed API requests by operation and error kind",
		}, []string{"op", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillswap_api_latency_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	m.registry.MustRegister(m.requests, m.failures, m.latency)
	return m
}

// Registry exposes the registry for scraping or inspection
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(op string, status int, d time.Duration) {
	code := "transport"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(op, code).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) fail(op, kind string) {
	m.failures.WithLabelValues(op, kind).Inc()
}

// OpStat is the request summary of one operation
type OpStat struct {
	Op       string
	Requests int
	Failures int
	Mean     time.Duration
}

// Summary returns per-operation totals sorted by operation
func (m *Metrics) Summary() ([]OpStat, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	byOp := map[string]*OpStat{}
	get := func(op string) *OpStat {
		if s, ok := byOp[op]; ok {
			return s
		}
		s := &OpStat{Op: op}
		byOp[op] = s
		return s
	}

	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var op string
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "op" {
					op = lp.GetValue()
				}
			}
			switch mf.GetName() {
			case "skillswap_api_requests_total":
				get(op).Requests += int(metric.GetCounter().GetValue())
			case "skillswap_api_failures_total":
				get(op).Failures += int(metric.GetCounter().GetValue())
			case "skillswap_api_latency_seconds":
				h := metric.GetHistogram()
				if n := h.GetSampleCount(); n > 0 {
					get(op).Mean = time.Duration(h.GetSampleSum() / float64(n) * float64(time.Second))
				}
			}
		}
	}

	out := make([]OpStat, 0, len(byOp))
	for _, s := range byOp {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out, nil
}
