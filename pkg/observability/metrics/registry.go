// Package metrics records Prometheus metrics for database access.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry gathers the database statement metrics of this process.
type Registry struct {
	registry *prometheus.Registry
}

// NewRegistry returns a registry holding the statement duration and count
// metrics and the optimistic conflict counter.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(dbQueryDuration, dbQueriesTotal, dbOptimisticConflicts)
	return &Registry{registry: reg}
}

// QueryCounts reports db_queries_total keyed by "dialect/operation/status".
func (r *Registry) QueryCounts() (map[string]float64, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "db_queries_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			key := labels["dialect"] + "/" + labels["operation"] + "/" + labels["status"]
			counts[key] += m.GetCounter().GetValue()
		}
	}
	return counts, nil
}
