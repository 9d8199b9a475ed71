// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package pipeline reconstructs forward/backward pipeline spans from the
// phase marker events a rank emits around each pass.
package pipeline

import (
	"sort"
	"strings"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/metrics"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
)

// MarkerEventName is the compute event that carries phase markers.
const MarkerEventName = "marker/compute/MarkerCUDA"

// The four detail tags that delimit a pipeline phase. The `_B`/`_E`
// suffix convention is fixed by the producer and must not be generalized:
// span names are derived from these exact strings.
const (
	markerForwardBegin  = "marker_forward_B"
	markerForwardEnd    = "marker_forward_E"
	markerBackwardBegin = "marker_backward_B"
	markerBackwardEnd   = "marker_backward_E"
)

const (
	ClassificationGood = "good"
	ClassificationBad  = "bad"
)

// Span is one matched begin/end phase interval.
type Span struct {
	Name           string
	StartNs        uint64
	DurationNs     uint64
	TrackID        int64
	ThreadID       int64
	Classification string
}

// IsPhaseMarker reports whether ev is one of the four phase markers.
func IsPhaseMarker(ev model.Event) bool {
	if ev.Name != MarkerEventName {
		return false
	}
	switch ev.DetailInfo {
	case markerForwardBegin, markerForwardEnd, markerBackwardBegin, markerBackwardEnd:
		return true
	}
	return false
}

// Reconstruct matches begin/end markers of one (rank, thread) pair into
// spans. Events may arrive in any order; matching runs in start-timestamp
// order with at most one pending begin: a later begin overwrites an
// unmatched earlier one (last-begin-wins), an end without a pending begin
// is dropped, and a trailing begin without an end is dropped. Dropped
// markers are counted, never fatal.
func Reconstruct(events []model.Event, trackID, threadID int64) []Span {
	markers := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if IsPhaseMarker(ev) {
			markers = append(markers, ev)
		}
	}
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].StartNs < markers[j].StartNs
	})

	spans := make([]Span, 0, len(markers)/2)
	var pending *model.Event
	for i := range markers {
		ev := markers[i]
		if strings.HasSuffix(ev.DetailInfo, "E") {
			if pending == nil {
				metrics.IncMarkerDropped("dangling_end")
				continue
			}
			name := phaseName(pending.DetailInfo)
			cname := ClassificationBad
			if name == "backward" {
				cname = ClassificationGood
			}
			spans = append(spans, Span{
				Name:           name,
				StartNs:        pending.StartNs,
				DurationNs:     ev.StartNs - pending.StartNs,
				TrackID:        trackID,
				ThreadID:       threadID,
				Classification: cname,
			})
			metrics.IncPipelineSpan(cname)
			pending = nil
		} else {
			if pending != nil {
				metrics.IncMarkerDropped("overwritten_begin")
			}
			pending = &markers[i]
		}
	}
	if pending != nil {
		metrics.IncMarkerDropped("trailing_begin")
	}
	return spans
}

// phaseName derives the span name from a begin tag: strip the trailing
// `_B` and take the second `_`-delimited token ("marker_forward_B" →
// "forward").
func phaseName(detail string) string {
	trimmed := detail[:strings.LastIndex(detail, "_")]
	return strings.Split(trimmed, "_")[1]
}
