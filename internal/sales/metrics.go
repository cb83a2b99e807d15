package sales

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	extractions    *prometheus.CounterVec
	commits        prometheus.Counter
	discardedItems prometheus.Counter
	historyReads   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waras",
			Name:      "extractions_total",
			Help:      "Transcript extractions by result.",
		}, []string{"result"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waras",
			Name:      "records_committed_total",
			Help:      "Sales records appended to the history.",
		}),
		discardedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waras",
			Name:      "items_discarded_total",
			Help:      "Extracted items dropped by validation.",
		}),
		historyReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waras",
			Name:      "history_reads_total",
			Help:      "History reads by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.extractions, m.commits, m.discardedItems, m.historyReads)
	}
	return m
}
