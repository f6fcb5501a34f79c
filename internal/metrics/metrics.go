// Package metrics exposes Prometheus collectors for calls and credential refreshes.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

const namespace = "ydbrpc"

// Collector holds the client's metric vectors.
type Collector struct {
	calls           *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	pessimizations  prometheus.Counter
}

// New creates a Collector and registers it with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "calls_total", Help: "unary calls by method and grpc code"},
			[]string{"method", "code"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "unary call latency.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"method"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "credential_refreshes_total", Help: "token refreshes by strategy and result"},
			[]string{"strategy", "result"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "credential_refresh_duration_seconds",
				Help:      "token refresh latency.",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"strategy"},
		),
		pessimizations: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "pessimizations_total", Help: "endpoints reported unhealthy"},
		),
	}

	for _, collector := range []prometheus.Collector{c.calls, c.callDuration, c.refreshes, c.refreshDuration, c.pessimizations} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// UnaryInterceptor records every call's outcome and latency.
func (c *Collector) UnaryInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)

		c.calls.WithLabelValues(method, status.Code(err).String()).Inc()
		c.callDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveRefresh records a credential refresh attempt.
func (c *Collector) ObserveRefresh(strategy string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.refreshes.WithLabelValues(strategy, result).Inc()
	c.refreshDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// Endpoint counts pessimize signals before forwarding them to next.
func (c *Collector) Endpoint(next ydbrpc.Endpoint) ydbrpc.Endpoint {
	return countingEndpoint{next: next, counter: c.pessimizations}
}

type countingEndpoint struct {
	next    ydbrpc.Endpoint
	counter prometheus.Counter
}

func (e countingEndpoint) Pessimize() {
	e.counter.Inc()
	if e.next != nil {
		e.next.Pessimize()
	}
}
