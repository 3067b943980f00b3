package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "riskmod_analysis_duration_sec",
	Help: "Total duration of content analysis",
}, []string{"outcome"})

var analysesCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskmod_analyses",
	Help: "Number of analyses processed, by outcome",
}, []string{"outcome"})

var autoBlockCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskmod_auto_blocks",
	Help: "Number of auto-block short-circuits, by reason",
}, []string{"reason"})

var scorerErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskmod_scorer_errors",
	Help: "Number of external scorer failures degraded to neutral defaults",
}, []string{"scorer"})

var storeErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskmod_store_errors",
	Help: "Number of case store failures on the analysis path (fail-open)",
}, []string{"op"})

var caseWriteCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskmod_case_writes",
	Help: "Number of background case writes, by status",
}, []string{"status"})

var feedbackCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskmod_feedback",
	Help: "Number of feedback corrections applied, by action",
}, []string{"action"})
