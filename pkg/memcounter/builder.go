// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package memcounter turns allocation lifetimes into cumulative memory
// counter series.
package memcounter

import (
	"sort"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/chrometrace"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/metrics"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/project"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/tracks"
)

type delta struct {
	timeNs uint64
	bytes  int64
	pid    int64
}

// Build emits one "Memory" counter series per rank. Every allocation
// expands into a +bytes delta at its start and a -bytes delta at its
// end; deltas are ordered by timestamp and prefix-summed into a running
// total that is never reset. Deltas sharing a timestamp fold into a
// single sample carrying the cumulative total, attributed to the last
// delta's track.
//
// Ranks of trainers at or beyond displaySize are skipped entirely. GPU
// and pinned allocations on a foreign device are skipped; host memory is
// shown for every device.
func Build(records []tracks.RankRecord, table *tracks.Table, gpuID int32, gpuPerTrainer, displaySize int, align project.AlignFunc, f *chrometrace.Formatter) {
	samples := 0
	for _, rr := range records {
		if rr.RankID/gpuPerTrainer >= displaySize {
			continue
		}

		deltas := make([]delta, 0, 2*len(rr.Record.MemEvents))
		for _, mev := range rr.Record.MemEvents {
			if mev.Place != model.PlaceCPU && mev.DeviceID != gpuID {
				continue
			}
			pid, ok := table.Lookup(tracks.Key{Rank: rr.Rank, DeviceID: mev.DeviceID, Category: tracks.MemCategory(mev.Place)})
			if !ok {
				continue
			}
			deltas = append(deltas,
				delta{timeNs: mev.StartNs, bytes: int64(mev.Bytes), pid: pid},
				delta{timeNs: mev.EndNs, bytes: -int64(mev.Bytes), pid: pid},
			)
		}
		sort.SliceStable(deltas, func(i, j int) bool {
			return deltas[i].timeNs < deltas[j].timeNs
		})

		var total int64
		for i := 0; i < len(deltas); {
			total += deltas[i].bytes
			for i < len(deltas)-1 && deltas[i].timeNs == deltas[i+1].timeNs {
				total += deltas[i+1].bytes
				i++
			}
			f.EmitCounter("Memory", deltas[i].pid, align(deltas[i].timeNs), total)
			samples++
			i++
		}
	}
	metrics.AddCounterSamples(samples)
}
