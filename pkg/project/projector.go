// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package project turns parsed compute events into timeline entries on
// their allocated tracks.
package project

import (
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/chrometrace"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/metrics"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/tracks"
)

// AlignFunc maps a raw dump timestamp to the output timebase.
type AlignFunc func(ns uint64) uint64

// Project emits one complete-phase entry per displayable compute event.
// A GPU-kernel event is dropped when it ran on a foreign device and the
// rank does not locally own gpuID; an event whose track was never
// allocated is dropped too, it belongs to a group this device does not
// display. Filtering is never an error.
func Project(records []tracks.RankRecord, table *tracks.Table, gpuID int32, gpuPerTrainer int, align AlignFunc, f *chrometrace.Formatter) {
	emitted := 0
	for _, rr := range records {
		for _, ev := range rr.Record.Events {
			var cat tracks.Category
			switch ev.Type {
			case model.EventTypeCPU:
				cat = tracks.CategoryCPU
			case model.EventTypeGPUKernel:
				cat = tracks.CategoryGPUKernel
			default:
				continue
			}

			if ev.Type == model.EventTypeGPUKernel &&
				ev.DeviceID != gpuID &&
				int32(rr.RankID%gpuPerTrainer) != gpuID {
				continue
			}

			pid, ok := table.Lookup(tracks.Key{Rank: rr.Rank, DeviceID: ev.DeviceID, Category: cat})
			if !ok {
				continue
			}

			args := map[string]interface{}{"name": ev.Name}
			if ev.MemcopyBytes > 0 {
				args["mem_bytes"] = ev.MemcopyBytes
			}
			if ev.DetailInfo != "" {
				args["detail_info"] = ev.DetailInfo
			}
			// Durations stay in ns even though the viewer assumes ms:
			// many ops are sub-microsecond and would collapse to zero.
			f.EmitRegion(align(ev.StartNs), ev.EndNs-ev.StartNs, pid, ev.SubDeviceID, "Op", ev.Name, args)
			emitted++
		}
	}
	metrics.AddTimelineEntries(emitted)
}
