package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyimports_files_parsed_total",
		Help: "Total number of Python files parsed successfully.",
	})

	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyimports_parse_errors_total",
		Help: "Total number of files skipped because they failed to parse.",
	})

	UnusedImportsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyimports_unused_imports_total",
		Help: "Total number of unused import declarations reported.",
	})

	FilesRewritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyimports_files_rewritten_total",
		Help: "Total number of files modified by fix mode.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyimports_graph_nodes_total",
		Help: "Number of nodes in the most recent import graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyimports_graph_edges_total",
		Help: "Number of edges in the most recent import graph.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyimports_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)
