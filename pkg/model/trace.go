// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "fmt"

// EventType distinguishes host-side events from device kernels. The
// numeric values are part of the on-disk record schema.
type EventType int32

const (
	EventTypeCPU       EventType = 0
	EventTypeGPUKernel EventType = 1
)

func (t EventType) Valid() bool {
	return t == EventTypeCPU || t == EventTypeGPUKernel
}

func (t EventType) String() string {
	switch t {
	case EventTypeCPU:
		return "CPU"
	case EventTypeGPUKernel:
		return "GPUKernel"
	}
	return fmt.Sprintf("EventType(%d)", int32(t))
}

// Place is the memory location of an allocation. The numeric values are
// part of the on-disk record schema.
type Place int32

const (
	PlaceGPU    Place = 0
	PlaceCPU    Place = 1
	PlacePinned Place = 2
)

func (p Place) Valid() bool {
	return p == PlaceGPU || p == PlaceCPU || p == PlacePinned
}

func (p Place) String() string {
	switch p {
	case PlaceGPU:
		return "GPU"
	case PlaceCPU:
		return "CPU"
	case PlacePinned:
		return "CUDAPinnedPlace"
	}
	return fmt.Sprintf("Place(%d)", int32(p))
}

// LabelToken is the lowercase form used in display labels
// ("memory usage on <rank>:gpu:0").
func (p Place) LabelToken() string {
	switch p {
	case PlaceGPU:
		return "gpu"
	case PlaceCPU:
		return "cpu"
	case PlacePinned:
		return "cudapinnedplace"
	}
	return "undefined"
}

// Event is one compute or memory-copy interval from a rank's trace dump.
// MemcopyBytes is zero when the event carries no memcopy section;
// DetailInfo is empty when absent.
type Event struct {
	Name         string
	Type         EventType
	DeviceID     int32
	SubDeviceID  int64
	StartNs      uint64
	EndNs        uint64
	MemcopyBytes uint64
	DetailInfo   string
}

// MemEvent describes the full lifetime of one allocation: StartNs is the
// allocation, EndNs the free.
type MemEvent struct {
	Place    Place
	DeviceID int32
	ThreadID uint64
	StartNs  uint64
	EndNs    uint64
	Bytes    uint64
}

// Record is one rank's parsed trace dump. MemEvents is empty (not nil)
// when the dump predates the memory section.
type Record struct {
	StartNs   uint64
	EndNs     uint64
	Events    []Event
	MemEvents []MemEvent
}

// RankFile is one on-disk trace dump attributed to a rank.
type RankFile struct {
	Path   string
	RankID int
}

// RankKey is the display key a rank's tracks are labeled with.
func RankKey(rankID int) string {
	return fmt.Sprintf("trainerRank.%03d", rankID)
}
