// Package metrics defines the oracle's Prometheus instruments and the
// exporter that serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Verification outcome labels.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeVerified = "verified"
)

// Feed outcome labels.
const (
	FeedUpdated  = "updated"
	FeedReplayed = "replayed"
	FeedRejected = "rejected"
)

// Oracle holds every instrument updated by the verifier and the feed store.
type Oracle struct {
	// Verifications counts signature checks by outcome: cache_hit,
	// verified, or the failure kind.
	Verifications *prometheus.CounterVec
	LeavesChecked prometheus.Counter
	// FeedUpdates counts per-leaf results of feed submissions.
	FeedUpdates *prometheus.CounterVec

	CommitteeSize    prometheus.Gauge
	TotalVotingPower prometheus.Gauge
	CheckpointBlock  prometheus.Gauge
	Paused           prometheus.Gauge

	VerifyDuration prometheus.Histogram
}

// NewOracle creates the instruments under namespace and registers them
// with reg. A nil reg leaves them unregistered.
func NewOracle(namespace string, reg prometheus.Registerer) *Oracle {
	m := &Oracle{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "verifications_total",
			Help:      "Aggregate signature checks by outcome.",
		}, []string{"outcome"}),
		LeavesChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "leaves_checked_total",
			Help:      "Merkle leaves checked against an accepted root.",
		}),
		FeedUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feeds",
			Name:      "updates_total",
			Help:      "Feed leaves processed by outcome.",
		}, []string{"outcome"}),
		CommitteeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "committee",
			Name:      "size",
			Help:      "Number of validators in the current set.",
		}),
		TotalVotingPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "committee",
			Name:      "total_voting_power",
			Help:      "Total voting power of the current set (float approximation).",
		}),
		CheckpointBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "checkpoint_block",
			Help:      "Block number of the last accepted event root.",
		}),
		Paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feeds",
			Name:      "paused",
			Help:      "1 while feed submissions are paused.",
		}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "pairing_seconds",
			Help:      "Time spent in the pairing check.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Verifications, m.LeavesChecked, m.FeedUpdates,
			m.CommitteeSize, m.TotalVotingPower, m.CheckpointBlock, m.Paused,
			m.VerifyDuration,
		)
	}
	return m
}

// NewNop returns unregistered instruments for components built without an
// exporter.
func NewNop() *Oracle {
	return NewOracle("", nil)
}

// SetBool sets g to 1 or 0.
func SetBool(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
		return
	}
	g.Set(0)
}
