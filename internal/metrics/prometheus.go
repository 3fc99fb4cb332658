// Package metrics exports node dispatch metrics to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts dispatches per node and stage and records the
// duration of each call.
type PrometheusObserver struct {
	api.NoopObserver

	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ api.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the collectors and registers them with reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodeflux",
			Name:      "node_executions_total",
			Help:      "Node dispatches by node id and final pipeline stage.",
		}, []string{"node", "stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nodeflux",
			Name:      "node_execution_duration_seconds",
			Help:      "Wall time of node dispatches, validation included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"node"}),
	}
	for _, c := range []prometheus.Collector{o.executions, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnNodeFinished(ctx context.Context, call *api.Call, res api.Result, d time.Duration) {
	node := call.NodeID
	if res.Stage == api.StageNotFound {
		// Unknown ids are caller input; keep label cardinality bounded.
		node = api.UnknownNodeID
	}
	o.executions.WithLabelValues(node, string(res.Stage)).Inc()
	o.duration.WithLabelValues(node).Observe(d.Seconds())
}
