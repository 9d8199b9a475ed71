// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rankFileParseCount *prometheus.CounterVec
	markerDroppedCount *prometheus.CounterVec
	pipelineSpanCount  *prometheus.CounterVec
	workerChunkCount   *prometheus.CounterVec
	counterSampleCount prometheus.Counter
	timelineEntryCount prometheus.Counter
)

func init() {
	// 按结果统计 rank 文件解析（result: ok/error）
	rankFileParseCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "trace_converter",
			Name:      "rank_file_parse_total",
			Help:      "Total number of rank trace files parsed",
		},
		[]string{"result"},
	)
	prometheus.MustRegister(rankFileParseCount)

	// 丢弃的孤立 marker（kind: dangling_end/overwritten_begin/trailing_begin）
	markerDroppedCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "trace_converter",
			Name:      "marker_dropped_total",
			Help:      "Total number of unmatched phase markers dropped during span reconstruction",
		},
		[]string{"kind"},
	)
	prometheus.MustRegister(markerDroppedCount)

	pipelineSpanCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "trace_converter",
			Name:      "pipeline_span_total",
			Help:      "Total number of reconstructed pipeline spans",
		},
		[]string{"classification"},
	)
	prometheus.MustRegister(pipelineSpanCount)

	// worker chunk 结果（result: ok/error）
	workerChunkCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "trace_converter",
			Name:      "worker_chunk_total",
			Help:      "Total number of worker chunks by outcome",
		},
		[]string{"result"},
	)
	prometheus.MustRegister(workerChunkCount)

	counterSampleCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "trace_converter",
			Name:      "memory_counter_sample_total",
			Help:      "Total number of emitted memory counter samples",
		},
	)
	prometheus.MustRegister(counterSampleCount)

	timelineEntryCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "trace_converter",
			Name:      "timeline_entry_total",
			Help:      "Total number of emitted timeline entries",
		},
	)
	prometheus.MustRegister(timelineEntryCount)
}

func IncRankFileParse(result string) {
	rankFileParseCount.WithLabelValues(result).Inc()
}

func IncMarkerDropped(kind string) {
	markerDroppedCount.WithLabelValues(kind).Inc()
}

func IncPipelineSpan(classification string) {
	pipelineSpanCount.WithLabelValues(classification).Inc()
}

func IncWorkerChunk(result string) {
	workerChunkCount.WithLabelValues(result).Inc()
}

func AddCounterSamples(n int) {
	counterSampleCount.Add(float64(n))
}

func AddTimelineEntries(n int) {
	timelineEntryCount.Add(float64(n))
}
