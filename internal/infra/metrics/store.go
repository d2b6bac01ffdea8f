package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		stateOps,
		ownerLoads,
		ownerEvictions,
		ownersCached,
	)
}

var (
	stateOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_store_ops_total",
			Help: "State store operations by op (load/save/delete) and result.",
		},
		[]string{"op", "result"},
	)

	ownerLoads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "record_owner_loads_total",
			Help: "Records loaded from durable storage into an owner's cache.",
		},
	)

	ownerEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "record_owner_evictions_total",
			Help: "Idle owners evicted from the in-memory registry.",
		},
	)

	ownersCached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "record_owners_cached",
			Help: "Owners currently resident in the registry.",
		},
	)
)

func IncStateOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	stateOps.WithLabelValues(op, result).Inc()
}

func IncOwnerLoad() { ownerLoads.Inc() }

func AddOwnerEvictions(n int) {
	if n > 0 {
		ownerEvictions.Add(float64(n))
	}
}

func SetOwnersCached(n int) { ownersCached.Set(float64(n)) }
