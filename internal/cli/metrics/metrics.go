// Package metrics counts client-side traffic: requests, token refreshes and poll ticks.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics owns its registry so several clients (and tests) can coexist in one process.
type Metrics struct {
	Registry        *prometheus.Registry
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	Polls           *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "ojclient", Name: "http_requests_total", Help: "Backend requests by method and status class."},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: "ojclient", Name: "http_request_duration_seconds", Help: "Backend request latency.", Buckets: prometheus.DefBuckets},
			[]string{"method"},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "ojclient", Name: "token_refresh_total", Help: "Access token refresh attempts by result."},
			[]string{"result"},
		),
		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "ojclient", Name: "submission_polls_total", Help: "Submission status polls by outcome."},
			[]string{"outcome"},
		),
	}
	m.Registry.MustRegister(m.Requests, m.RequestDuration, m.Refreshes, m.Polls)
	return m
}

// StatusClass buckets an HTTP status for the requests counter; 0 means transport failure.
func StatusClass(status int) string {
	if status == 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", status/100)
}

// Dump renders counters as "name{labels} value" lines, sorted. Histograms print their count.
func (m *Metrics) Dump() (string, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return "", err
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %s", mf.GetName(), labels(metric), value(mf.GetType(), metric)))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func labels(metric *dto.Metric) string {
	pairs := metric.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, lp := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func value(kind dto.MetricType, metric *dto.Metric) string {
	switch kind {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", metric.GetCounter().GetValue())
	case dto.MetricType_HISTOGRAM:
		return fmt.Sprintf("count=%d", metric.GetHistogram().GetSampleCount())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", metric.GetGauge().GetValue())
	default:
		return "?"
	}
}
