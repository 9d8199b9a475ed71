// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package tracks assigns stable timeline track ids to the (rank, device,
// category) groups found in parsed trace records.
package tracks

import (
	"fmt"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/chrometrace"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
)

// Category separates the track namespaces. Compute and memory tracks of
// the same rank and device must never share an id, so the memory
// categories are distinct from the compute ones.
type Category string

const (
	CategoryCPU       Category = "CPU"
	CategoryGPUKernel Category = "GPUKernel"
	CategoryMemCPU    Category = "memCPU"
	CategoryMemGPU    Category = "memGPU"
	CategoryMemPinned Category = "memCUDAPinnedPlace"
)

// MemCategory maps a memory place to its track category.
func MemCategory(p model.Place) Category {
	switch p {
	case model.PlaceCPU:
		return CategoryMemCPU
	case model.PlaceGPU:
		return CategoryMemGPU
	case model.PlacePinned:
		return CategoryMemPinned
	}
	return Category("memUnDefine")
}

// Key identifies one track.
type Key struct {
	Rank     string
	DeviceID int32
	Category Category
}

// Table maps keys to dense track ids, preserving first-assignment order.
type Table struct {
	ids   map[Key]int64
	order []Key
	next  int64
}

func NewTable(base int64) *Table {
	return &Table{ids: map[Key]int64{}, next: base}
}

// Assign returns the track id for k, allocating the next dense id on
// first sight. Repeated calls with the same key return the same id.
func (t *Table) Assign(k Key) int64 {
	if id, ok := t.ids[k]; ok {
		return id
	}
	id := t.next
	t.next++
	t.ids[k] = id
	t.order = append(t.order, k)
	return id
}

// Lookup returns the id assigned to k, if any.
func (t *Table) Lookup(k Key) (int64, bool) {
	id, ok := t.ids[k]
	return id, ok
}

// Len returns the number of assigned tracks.
func (t *Table) Len() int {
	return len(t.order)
}

// Keys returns the assigned keys in allocation order.
func (t *Table) Keys() []Key {
	return t.order
}

// RankRecord pairs a parsed record with its rank identity. Allocation
// walks ranks in slice order, so callers pass them sorted by rank id.
type RankRecord struct {
	RankID int
	Rank   string
	Record *model.Record
}

// Allocate walks the records and assigns a track id to every group the
// device gpuID should display, emitting a process_name label for each new
// track. Track ids grow densely from basePid across all ranks, while the
// numeric label prefix restarts at basePid+1 for every rank so each
// rank's tracks sort together in the viewer.
//
// Per rank, compute tracks come first: one per distinct (device, CPU)
// pair, with device -1 labeled as the runtime API track, and one
// GPU-kernel track only when the event's device is gpuID. Memory tracks
// follow, one per distinct (device, place); GPU and pinned places are
// skipped unless the device is gpuID. A rank with any memory events also
// gets catch-all tracks for all three places at device 0.
func Allocate(records []RankRecord, gpuID int32, basePid int64, f *chrometrace.Formatter) *Table {
	table := NewTable(basePid)
	baseLine := basePid + 1

	for _, rr := range records {
		line := baseLine
		for _, ev := range rr.Record.Events {
			switch ev.Type {
			case model.EventTypeCPU:
				key := Key{Rank: rr.Rank, DeviceID: ev.DeviceID, Category: CategoryCPU}
				if _, ok := table.Lookup(key); !ok {
					pid := table.Assign(key)
					if ev.DeviceID == -1 {
						// -1 device id marks runtime API calls (e.g. cudaLaunch, cudaMemcpy).
						f.EmitPid(fmt.Sprintf("%02d_%s:cuda_api", line, rr.Rank), pid)
					} else {
						f.EmitPid(fmt.Sprintf("%02d_%s:cpu:block:%d", line, rr.Rank, ev.DeviceID), pid)
					}
					line++
				}
			case model.EventTypeGPUKernel:
				if ev.DeviceID != gpuID {
					continue
				}
				key := Key{Rank: rr.Rank, DeviceID: ev.DeviceID, Category: CategoryGPUKernel}
				if _, ok := table.Lookup(key); !ok {
					pid := table.Assign(key)
					f.EmitPid(fmt.Sprintf("%02d_%s:gpu:%d", line, rr.Rank, ev.DeviceID), pid)
					line++
				}
			}
		}

		for _, mev := range rr.Record.MemEvents {
			if mev.Place == model.PlaceCPU || mev.DeviceID == gpuID {
				key := Key{Rank: rr.Rank, DeviceID: mev.DeviceID, Category: MemCategory(mev.Place)}
				if _, ok := table.Lookup(key); !ok {
					pid := table.Assign(key)
					f.EmitPid(memLabel(line, rr.Rank, mev.Place, mev.DeviceID), pid)
					line++
				}
			}
			line = ensureCatchAlls(table, rr.Rank, line, f)
		}
	}
	return table
}

// ensureCatchAlls creates the per-rank device-0 memory tracks for all
// three places. Idempotent; only newly created tracks consume a line.
func ensureCatchAlls(table *Table, rank string, line int64, f *chrometrace.Formatter) int64 {
	for _, place := range []model.Place{model.PlaceCPU, model.PlaceGPU, model.PlacePinned} {
		key := Key{Rank: rank, DeviceID: 0, Category: MemCategory(place)}
		if _, ok := table.Lookup(key); !ok {
			pid := table.Assign(key)
			f.EmitPid(memLabel(line, rank, place, 0), pid)
			line++
		}
	}
	return line
}

func memLabel(line int64, rank string, place model.Place, deviceID int32) string {
	return fmt.Sprintf("%02d_memory usage on %s:%s:%d", line, rank, place.LabelToken(), deviceID)
}
