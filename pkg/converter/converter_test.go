// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/chrometrace"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/config"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/profile/profiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markerPair(startNs uint64) []model.Event {
	return []model.Event{
		{
			Name:       "marker/compute/MarkerCUDA",
			Type:       model.EventTypeGPUKernel,
			DeviceID:   0,
			StartNs:    startNs,
			EndNs:      startNs + 1,
			DetailInfo: "marker_forward_B",
		},
		{
			Name:       "marker/compute/MarkerCUDA",
			Type:       model.EventTypeGPUKernel,
			DeviceID:   0,
			StartNs:    startNs + 10,
			EndNs:      startNs + 11,
			DetailInfo: "marker_forward_E",
		},
	}
}

func writeRank(t *testing.T, dir string, rankID int, rec *model.Record) {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("profile.%d", rankID))
	require.NoError(t, profiletest.WriteFile(path, rec))
}

func newTestConverter(t *testing.T, dataDir, outDir string) *Converter {
	t.Helper()
	c, err := New(&config.Config{
		DataPath:  dataDir,
		OutputDir: outDir,
		GroupSize: 2,
		Workers:   2,
	})
	require.NoError(t, err)
	return c
}

func TestGetPipelineInfoTwoRanks(t *testing.T) {
	dir := t.TempDir()
	for rank := 0; rank < 2; rank++ {
		writeRank(t, dir, rank, &model.Record{
			Events:    markerPair(uint64(1000 + rank)),
			MemEvents: []model.MemEvent{},
		})
	}

	c := newTestConverter(t, dir, t.TempDir())
	info, report, err := c.GetPipelineInfo(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, report)

	entries := info[0]
	require.Len(t, entries, 3)

	assert.Equal(t, "M", entries[0].Phase)
	assert.Equal(t, "01_pipeLineInfo", entries[0].Args["name"])
	assert.Equal(t, int64(0), entries[0].Pid)

	for i, e := range entries[1:] {
		assert.Equal(t, "forward", e.Name)
		assert.Equal(t, "bad", e.Cname)
		assert.Equal(t, uint64(10), e.Dur)
		assert.Equal(t, int64(0), e.Pid)
		assert.Equal(t, int64(i), e.Tid)
	}
}

func TestGetPipelineInfoGroupsByLocalGpu(t *testing.T) {
	dir := t.TempDir()
	for rank := 0; rank < 4; rank++ {
		writeRank(t, dir, rank, &model.Record{
			Events:    markerPair(1000),
			MemEvents: []model.MemEvent{},
		})
	}

	c, err := New(&config.Config{DataPath: dir, GpuPerTrainer: 2, GroupSize: 2})
	require.NoError(t, err)
	info, _, err := c.GetPipelineInfo(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, info, 2)
	// Ranks 0 and 2 share gpu 0, ranks 1 and 3 share gpu 1.
	require.Len(t, info[0], 3)
	require.Len(t, info[1], 3)
	assert.Equal(t, int64(0), info[0][1].Tid)
	assert.Equal(t, int64(2), info[0][2].Tid)
	assert.Equal(t, int64(1), info[1][1].Tid)
	assert.Equal(t, int64(3), info[1][2].Tid)
}

func TestGetPipelineInfoExcludesFailedRank(t *testing.T) {
	dir := t.TempDir()
	writeRank(t, dir, 0, &model.Record{Events: markerPair(1000), MemEvents: []model.MemEvent{}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.1"), []byte{0xff, 0xff, 0xff, 0x07}, 0644))

	c := newTestConverter(t, dir, t.TempDir())
	info, report, err := c.GetPipelineInfo(context.Background(), 0)
	require.NoError(t, err)

	// The healthy rank converts; the corrupt one lands in the report.
	require.Len(t, info[0], 2)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.FailedRanks, 1)
	assert.Equal(t, 1, report.FailedRanks[0].RankID)
}

func TestGetOpTraceInfoDocument(t *testing.T) {
	dir := t.TempDir()
	writeRank(t, dir, 0, &model.Record{
		Events: []model.Event{
			{Name: "cudaLaunch", Type: model.EventTypeCPU, DeviceID: -1, SubDeviceID: 3, StartNs: 1000, EndNs: 1100},
			{Name: "matmul", Type: model.EventTypeGPUKernel, DeviceID: 0, SubDeviceID: 2, StartNs: 1200, EndNs: 1500},
		},
		MemEvents: []model.MemEvent{
			{Place: model.PlaceGPU, DeviceID: 0, StartNs: 1300, EndNs: 1400, Bytes: 256},
		},
	})

	c := newTestConverter(t, dir, t.TempDir())
	docs, report, err := c.GetOpTraceInfo(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, report)
	require.Len(t, docs, 1)

	entries := docs[0].TraceEvents
	require.NotEmpty(t, entries)

	// Metadata first, then regions, then counters.
	var phases []string
	for _, e := range entries {
		phases = append(phases, e.Phase)
	}
	assert.Equal(t, []string{"M", "M", "M", "M", "M", "X", "X", "C", "C"}, phases)

	// Op-trace track ids start above the reserved ranges.
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.Pid, int64(21))
	}

	assert.Equal(t, "22_trainerRank.000:cuda_api", entries[0].Args["name"])
	assert.Equal(t, "matmul", entries[6].Name)
	assert.Equal(t, int64(2), entries[6].Tid)
	assert.Equal(t, int64(256), entries[7].Args["value"])
	assert.Equal(t, int64(0), entries[8].Args["value"])
}

func TestGetOpTraceInfoRankPredicate(t *testing.T) {
	dir := t.TempDir()
	// 2 gpus per trainer, 2 trainers per group, display only the first.
	for rank := 0; rank < 4; rank++ {
		writeRank(t, dir, rank, &model.Record{
			Events:    []model.Event{{Name: "op", Type: model.EventTypeCPU, DeviceID: 0, StartNs: 10, EndNs: 20}},
			MemEvents: []model.MemEvent{},
		})
	}

	c, err := New(&config.Config{DataPath: dir, GpuPerTrainer: 2, GroupSize: 2, DisplaySize: 1})
	require.NoError(t, err)
	docs, _, err := c.GetOpTraceInfo(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Only trainer 0 is displayed: one rank per gpu document.
	for gpuID := 0; gpuID < 2; gpuID++ {
		entries := docs[gpuID].TraceEvents
		require.Len(t, entries, 2, "gpu %d", gpuID)
		rank := model.RankKey(gpuID)
		assert.Contains(t, entries[0].Args["name"], rank)
	}
}

func TestRunWritesDocuments(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	writeRank(t, dir, 0, &model.Record{
		Events:    markerPair(1000),
		MemEvents: []model.MemEvent{},
	})

	c := newTestConverter(t, dir, out)
	require.NoError(t, c.Run(context.Background(), 0))

	for _, name := range []string{"pipelineinfo.group0.gpu0.json", "opinfo.group0.gpu0.json"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		var doc chrometrace.Document
		require.NoError(t, json.Unmarshal(data, &doc), name)
		assert.NotEmpty(t, doc.TraceEvents, name)
	}
}

func TestAlignTs(t *testing.T) {
	c, err := New(&config.Config{DataPath: "x", MinTimestampNs: 500})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), c.alignTs(600))
	assert.Equal(t, uint64(0), c.alignTs(400))
}
