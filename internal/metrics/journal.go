// SPDX-License-Identifier: MIT

// Package metrics exposes the daemon's prometheus business metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	videosSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bello_videos_saved_total",
		Help: "Video save attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	videosDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bello_videos_deleted_total",
		Help: "Video delete attempts by outcome",
	}, []string{"outcome"}) // outcome=success|not_found|recap_protected|failure

	videosPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bello_videos_pruned_total",
		Help: "Metadata entries dropped because the backing file was missing",
	})

	videosStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bello_videos_stored",
		Help: "Number of records in the metadata store (last read)",
	})

	recapChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bello_recap_checks_total",
		Help: "Total number of recap trigger evaluations",
	})

	recapGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bello_recap_generations_total",
		Help: "Recap generation attempts by type and outcome",
	}, []string{"type", "outcome"}) // type=weekly|monthly outcome=success|skipped|failure
)

func IncVideoSaved(outcome string)   { videosSavedTotal.WithLabelValues(outcome).Inc() }
func IncVideoDeleted(outcome string) { videosDeletedTotal.WithLabelValues(outcome).Inc() }

func RecordPrunedEntries(n int) {
	if n > 0 {
		videosPrunedTotal.Add(float64(n))
	}
}

func RecordStoredVideos(n int) { videosStored.Set(float64(n)) }

func IncRecapCheck() { recapChecksTotal.Inc() }
func IncRecapGeneration(recapType, outcome string) {
	recapGenerationsTotal.WithLabelValues(recapType, outcome).Inc()
}
